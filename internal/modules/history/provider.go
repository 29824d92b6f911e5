package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/pkg/formulas"
)

// MinCoverageRatio is the minimum share of the lookback window an asset
// must cover to stay in the batch (>= 90% of the trading days requested).
const MinCoverageRatio = 0.9

// defaultFetchConcurrency bounds simultaneous per-symbol fetches.
const defaultFetchConcurrency = 4

// ErrNoData signals that no requested symbol had usable history. Symbols
// that fail individually are excluded, never fatal for the batch; this
// error surfaces only when nothing survives.
var ErrNoData = errors.New("no usable price history for any requested symbol")

// Client fetches the daily adjusted closing series for one symbol.
type Client interface {
	DailyAdjustedCloses(symbol string, years int) ([]domain.ClosingPrice, error)
}

// Provider produces clean, aligned price tables for a symbol set, backed
// by an optional persistent cache with a validate-or-refetch contract.
type Provider struct {
	client      Client
	store       *Store     // nil disables persistent caching
	validator   *Validator // paired with store
	years       int
	concurrency int
	log         zerolog.Logger
}

// NewProvider creates a price history provider with a `years` lookback.
func NewProvider(client Client, store *Store, validator *Validator, years int, log zerolog.Logger) *Provider {
	if years <= 0 {
		years = 5
	}
	return &Provider{
		client:      client,
		store:       store,
		validator:   validator,
		years:       years,
		concurrency: defaultFetchConcurrency,
		log:         log.With().Str("component", "history_provider").Logger(),
	}
}

// MinRows is the minimum aligned row count for a usable table.
func (p *Provider) MinRows() int {
	return int(MinCoverageRatio * formulas.TradingDaysPerYear * float64(p.years))
}

// PriceTable returns an aligned table of adjusted closes for the requested
// symbols. A valid cache snapshot is reused; an absent or invalid one is
// replaced wholesale by a fresh fetch. Symbols without sufficient history
// are silently dropped - callers re-derive their active set from the
// table's actual columns.
func (p *Provider) PriceTable(ctx context.Context, symbols []string) (*domain.PriceTable, error) {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols requested", ErrNoData)
	}

	if p.store != nil && p.validator != nil {
		cached, fetchedAt, err := p.store.Load()
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to load price cache, refetching")
		} else {
			switch state := p.validator.Validate(cached, fetchedAt, symbols, p.MinRows()); state {
			case CacheValid:
				p.log.Info().Int("rows", cached.Rows()).Msg("Using cached price history")
				return subset(cached, symbols), nil
			default:
				p.log.Info().Str("cache_state", string(state)).Msg("Price cache not usable, refetching")
			}
		}
	}

	table, err := p.fetchTable(ctx, symbols)
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.store.Replace(table, time.Now()); err != nil {
			p.log.Warn().Err(err).Msg("Failed to persist price cache")
		}
	}
	return table, nil
}

// Refresh forces a fetch and cache replacement for the given symbols.
func (p *Provider) Refresh(ctx context.Context, symbols []string) error {
	table, err := p.fetchTable(ctx, dedupe(symbols))
	if err != nil {
		return err
	}
	if p.store == nil {
		return nil
	}
	return p.store.Replace(table, time.Now())
}

// fetchTable downloads every symbol's history concurrently, drops symbols
// below the coverage threshold, and aligns the survivors on their common
// dates.
func (p *Provider) fetchTable(ctx context.Context, symbols []string) (*domain.PriceTable, error) {
	series := make(map[string][]domain.ClosingPrice, len(symbols))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			closes, err := p.client.DailyAdjustedCloses(symbol, p.years)
			if err != nil {
				// Per-asset failures exclude the asset, not the batch.
				p.log.Warn().Err(err).Str("symbol", symbol).Msg("Excluding symbol: fetch failed")
				return nil
			}
			mu.Lock()
			series[symbol] = closes
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	minRows := p.MinRows()
	kept := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		closes, ok := series[symbol]
		if !ok {
			continue
		}
		if len(closes) < minRows {
			p.log.Warn().
				Str("symbol", symbol).
				Int("rows", len(closes)).
				Int("min_rows", minRows).
				Msg("Excluding symbol: insufficient history")
			continue
		}
		kept = append(kept, symbol)
	}
	if len(kept) == 0 {
		return nil, ErrNoData
	}

	// Align on the dates all kept symbols share. If the overlap is too
	// thin, shed the symbol with the fewest observations and retry rather
	// than failing the batch.
	for {
		dates := commonDates(series, kept)
		if len(dates) >= minRows || len(kept) == 1 {
			if len(dates) < minRows {
				return nil, fmt.Errorf("%w: only %d aligned rows, need %d", ErrNoData, len(dates), minRows)
			}
			return buildTable(series, kept, dates), nil
		}

		shortest := kept[0]
		for _, symbol := range kept[1:] {
			if len(series[symbol]) < len(series[shortest]) {
				shortest = symbol
			}
		}
		p.log.Warn().Str("symbol", shortest).Msg("Excluding symbol: poor date overlap")
		next := kept[:0]
		for _, symbol := range kept {
			if symbol != shortest {
				next = append(next, symbol)
			}
		}
		kept = next
	}
}

// commonDates returns the ascending dates present in every kept series.
func commonDates(series map[string][]domain.ClosingPrice, kept []string) []string {
	counts := map[string]int{}
	for _, symbol := range kept {
		seen := map[string]bool{}
		for _, c := range series[symbol] {
			if !seen[c.Date] {
				seen[c.Date] = true
				counts[c.Date]++
			}
		}
	}

	var dates []string
	for date, n := range counts {
		if n == len(kept) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

func buildTable(series map[string][]domain.ClosingPrice, kept []string, dates []string) *domain.PriceTable {
	lookup := make(map[string]map[string]float64, len(kept))
	for _, symbol := range kept {
		bySymbol := make(map[string]float64, len(series[symbol]))
		for _, c := range series[symbol] {
			bySymbol[c.Date] = c.Close
		}
		lookup[symbol] = bySymbol
	}

	prices := make([][]float64, len(dates))
	for row, date := range dates {
		prices[row] = make([]float64, len(kept))
		for col, symbol := range kept {
			prices[row][col] = lookup[symbol][date]
		}
	}
	return &domain.PriceTable{Dates: dates, Symbols: kept, Prices: prices}
}

// subset projects a cached table onto the requested symbols, preserving
// request order. The validator has already guaranteed every requested
// symbol is present.
func subset(table *domain.PriceTable, symbols []string) *domain.PriceTable {
	cols := make([]int, len(symbols))
	for i, symbol := range symbols {
		cols[i] = table.SymbolIndex(symbol)
	}

	prices := make([][]float64, table.Rows())
	for row := range prices {
		prices[row] = make([]float64, len(cols))
		for i, col := range cols {
			prices[row][i] = table.Prices[row][col]
		}
	}

	dates := make([]string, table.Rows())
	copy(dates, table.Dates)

	out := make([]string, len(symbols))
	copy(out, symbols)

	return &domain.PriceTable{Dates: dates, Symbols: out, Prices: prices}
}

func dedupe(symbols []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, symbol := range symbols {
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
