package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// SampleSymbols is the built-in demonstration basket used when a session
// is created without an explicit symbol list.
var SampleSymbols = []string{"AAPL", "MSFT", "JNJ", "GLD", "SLV", "DBA", "XOM", "VTI", "BND"}

// Defaults configure a session when the request omits a value.
type Defaults struct {
	NumPortfolios int
	RiskFreeRate  float64
}

// Service runs the full analysis pipeline: price history, statistics,
// Monte Carlo sampling. The result is stored as an immutable Analysis.
type Service struct {
	provider *history.Provider
	stats    *statistics.Service
	sampler  *frontier.Sampler
	store    *Store
	defaults Defaults
	log      zerolog.Logger
}

// NewService creates a session service.
func NewService(
	provider *history.Provider,
	stats *statistics.Service,
	sampler *frontier.Sampler,
	store *Store,
	defaults Defaults,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider: provider,
		stats:    stats,
		sampler:  sampler,
		store:    store,
		defaults: defaults,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// CreateRequest describes a new analysis. Zero values fall back to the
// configured defaults; an empty symbol list uses the sample basket.
type CreateRequest struct {
	Symbols       []string `json:"symbols"`
	NumPortfolios int      `json:"num_portfolios"`
	RiskFreeRate  *float64 `json:"risk_free_rate"`
}

// Create fetches history, builds statistics, samples the frontier, and
// registers the resulting analysis. Symbols dropped for insufficient
// history are reflected in the analysis table's columns, not errored.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Analysis, error) {
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = SampleSymbols
	}

	numPortfolios := req.NumPortfolios
	if numPortfolios == 0 {
		numPortfolios = s.defaults.NumPortfolios
	}
	riskFree := s.defaults.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}

	table, err := s.provider.PriceTable(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	bundle, err := s.stats.BundleFor(table)
	if err != nil {
		return nil, err
	}

	population, err := s.sampler.Sample(bundle, numPortfolios, riskFree)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		RiskFreeRate: riskFree,
		Table:        table,
		Bundle:       bundle,
		Population:   population,
	}
	id := s.store.Put(analysis)

	s.log.Info().
		Str("session_id", id).
		Int("num_symbols", table.Columns()).
		Int("num_portfolios", len(population)).
		Msg("Created analysis session")

	return analysis, nil
}

// Get returns a stored analysis.
func (s *Service) Get(id string) (*Analysis, bool) {
	return s.store.Get(id)
}

// Count returns the number of retained analyses.
func (s *Service) Count() int {
	return s.store.Count()
}

// RiskFreeDefault exposes the configured risk-free rate.
func (s *Service) RiskFreeDefault() float64 {
	return s.defaults.RiskFreeRate
}
