// Package assets computes per-asset analytics for the dashboard's asset
// table: growth, volatility, drawdown, and momentum per column of a price
// table.
package assets

import (
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/pkg/formulas"
)

// Stats holds the per-asset figures shown alongside the frontier. Pointer
// fields are nil when the series is too short for the calculation.
type Stats struct {
	Symbol               string   `json:"symbol"`
	LatestClose          float64  `json:"latest_close"`
	CAGR                 *float64 `json:"cagr,omitempty"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	MaxDrawdown          *float64 `json:"max_drawdown,omitempty"`
	RSI                  *float64 `json:"rsi,omitempty"`
}

// Analyzer derives Stats from price tables.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates an asset analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "assets").Logger(),
	}
}

// Analyze computes stats for every asset in the table, in column order.
func (a *Analyzer) Analyze(table *domain.PriceTable) []Stats {
	if table == nil {
		return nil
	}

	stats := make([]Stats, 0, table.Columns())
	for col, symbol := range table.Symbols {
		prices := table.Column(col)
		returns := formulas.PeriodicReturns(prices)

		s := Stats{
			Symbol:               symbol,
			AnnualizedVolatility: formulas.AnnualizedVolatility(returns),
			CAGR:                 formulas.CAGR(prices),
			MaxDrawdown:          formulas.MaxDrawdown(prices),
			RSI:                  formulas.LatestRSI(prices, formulas.DefaultRSIPeriod),
		}
		if len(prices) > 0 {
			s.LatestClose = prices[len(prices)-1]
		}
		stats = append(stats, s)
	}

	a.log.Debug().Int("num_assets", len(stats)).Msg("Analyzed assets")
	return stats
}
