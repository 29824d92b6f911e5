// Package history supplies clean, aligned price tables: it fetches daily
// adjusted closes per asset, filters out assets with insufficient
// coverage, and maintains a validate-before-trust persistent cache.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
)

// Store persists one price table in the cache database. The cache is a
// single snapshot: Replace always rewrites it wholesale, matching the
// validate-or-refetch contract (partial caches are never patched).
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a price cache store.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// Init creates the cache tables if they do not exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			symbol    TEXT NOT NULL,
			date      TEXT NOT NULL,
			adj_close REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		);
		CREATE TABLE IF NOT EXISTS cache_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create price cache tables: %w", err)
	}
	return nil
}

// Replace rewrites the cached snapshot with a fresh price table.
func (s *Store) Replace(table *domain.PriceTable, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM prices`); err != nil {
		return fmt.Errorf("failed to clear price cache: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO prices (symbol, date, adj_close) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for row, date := range table.Dates {
		for col, symbol := range table.Symbols {
			if _, err := stmt.Exec(symbol, date, table.Prices[row][col]); err != nil {
				return fmt.Errorf("failed to insert price %s/%s: %w", symbol, date, err)
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO cache_meta (key, value) VALUES ('fetched_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, strconv.FormatInt(fetchedAt.Unix(), 10)); err != nil {
		return fmt.Errorf("failed to record cache timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache replace: %w", err)
	}

	s.log.Info().
		Int("rows", table.Rows()).
		Int("symbols", table.Columns()).
		Msg("Replaced price cache")
	return nil
}

// Load reads the cached snapshot. A missing cache yields a nil table and
// no error; structural problems are left for the validator to judge (a
// cell absent from the cache is loaded as NaN).
func (s *Store) Load() (*domain.PriceTable, time.Time, error) {
	var fetchedAtRaw string
	err := s.db.QueryRow(`SELECT value FROM cache_meta WHERE key = 'fetched_at'`).Scan(&fetchedAtRaw)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read cache metadata: %w", err)
	}
	fetchedAtUnix, err := strconv.ParseInt(fetchedAtRaw, 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("corrupt cache timestamp %q: %w", fetchedAtRaw, err)
	}

	rows, err := s.db.Query(`SELECT symbol, date, adj_close FROM prices`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query cached prices: %w", err)
	}
	defer rows.Close()

	cells := map[string]map[string]float64{} // date -> symbol -> close
	symbolSet := map[string]bool{}
	for rows.Next() {
		var symbol, date string
		var close float64
		if err := rows.Scan(&symbol, &date, &close); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan cached price: %w", err)
		}
		if cells[date] == nil {
			cells[date] = map[string]float64{}
		}
		cells[date][symbol] = close
		symbolSet[symbol] = true
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating cached prices: %w", err)
	}
	if len(cells) == 0 {
		return nil, time.Time{}, nil
	}

	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	dates := make([]string, 0, len(cells))
	for date := range cells {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	prices := make([][]float64, len(dates))
	for row, date := range dates {
		prices[row] = make([]float64, len(symbols))
		for col, symbol := range symbols {
			if v, ok := cells[date][symbol]; ok {
				prices[row][col] = v
			} else {
				prices[row][col] = math.NaN()
			}
		}
	}

	table := &domain.PriceTable{Dates: dates, Symbols: symbols, Prices: prices}
	return table, time.Unix(fetchedAtUnix, 0), nil
}
