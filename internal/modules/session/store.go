// Package session holds per-analysis state. The engine's functions are
// pure; everything a request touches lives in an immutable Analysis
// snapshot keyed by a session id, so concurrent analyses never interfere.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// defaultMaxSessions caps retained analyses; the oldest is evicted first.
const defaultMaxSessions = 32

// Analysis is one completed run: the price table it was computed from, the
// derived statistics, and the sampled population. All fields are read-only
// snapshots once stored.
type Analysis struct {
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	RiskFreeRate float64             `json:"risk_free_rate"`
	Table        *domain.PriceTable  `json:"-"`
	Bundle       *statistics.Bundle  `json:"-"`
	Population   frontier.Population `json:"-"`
}

// Store is an in-memory, concurrency-safe registry of analyses.
type Store struct {
	mu          sync.RWMutex
	analyses    map[string]*Analysis
	maxSessions int
	log         zerolog.Logger
}

// NewStore creates a session store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		analyses:    make(map[string]*Analysis),
		maxSessions: defaultMaxSessions,
		log:         log.With().Str("component", "session_store").Logger(),
	}
}

// Put registers an analysis, assigns it an id, and returns the id. When
// the store is full the oldest analysis is evicted.
func (s *Store) Put(a *Analysis) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	for len(s.analyses) >= s.maxSessions {
		oldestID := ""
		var oldest time.Time
		for id, existing := range s.analyses {
			if oldestID == "" || existing.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = existing.CreatedAt
			}
		}
		delete(s.analyses, oldestID)
		s.log.Debug().Str("session_id", oldestID).Msg("Evicted oldest session")
	}

	s.analyses[a.ID] = a
	return a.ID
}

// Get returns the analysis for id, if present.
func (s *Store) Get(id string) (*Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	return a, ok
}

// Delete removes an analysis.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.analyses, id)
}

// Count returns the number of retained analyses.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses)
}
