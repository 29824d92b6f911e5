// Package statistics converts a price table into the annualized return and
// risk inputs of mean-variance analysis.
package statistics

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/frontier/internal/domain"
)

// TradingDaysPerYear is the annualization factor for daily price data.
const TradingDaysPerYear = 252

// ErrInsufficientData signals that too few price rows remain to compute
// variance. The caller can recover by fetching a longer window or dropping
// the offending asset.
var ErrInsufficientData = errors.New("insufficient price history")

// Bundle holds the annualized statistics derived from one price table.
// It is recomputed from scratch whenever the table changes and never
// mutated in place.
type Bundle struct {
	Symbols     []string
	MeanReturns []float64     // annualized mean periodic returns
	Covariance  *mat.SymDense // annualized sample covariance (unbiased)
}

// NumAssets returns the bundle dimension.
func (b *Bundle) NumAssets() int {
	return len(b.Symbols)
}

// Builder computes statistics bundles. It is stateless; Build is a pure
// function of its input.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a statistics builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "statistics").Logger(),
	}
}

// Build derives the annualized mean-return vector and covariance matrix
// from a price table. Fails with ErrInsufficientData when fewer than two
// return rows remain after differencing.
func (b *Builder) Build(table *domain.PriceTable) (*Bundle, error) {
	if table == nil || table.Columns() == 0 {
		return nil, fmt.Errorf("%w: price table has no assets", ErrInsufficientData)
	}

	returns := PeriodicReturns(table)
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return rows, have %d", ErrInsufficientData, len(returns))
	}

	n := table.Columns()

	// Extract per-asset return series once; both the means and the
	// pairwise covariances read them.
	series := make([][]float64, n)
	for col := 0; col < n; col++ {
		s := make([]float64, len(returns))
		for row := range returns {
			s[row] = returns[row][col]
		}
		series[col] = s
	}

	means := make([]float64, n)
	for col := 0; col < n; col++ {
		means[col] = stat.Mean(series[col], nil) * TradingDaysPerYear
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, stat.Covariance(series[i], series[j], nil)*TradingDaysPerYear)
		}
	}

	b.log.Debug().
		Int("num_assets", n).
		Int("return_rows", len(returns)).
		Msg("Built statistics bundle")

	symbols := make([]string, n)
	copy(symbols, table.Symbols)

	return &Bundle{
		Symbols:     symbols,
		MeanReturns: means,
		Covariance:  cov,
	}, nil
}

// PeriodicReturns computes row-over-row relative returns for every asset:
// r[t][a] = (p[t+1][a] - p[t][a]) / p[t][a]. The result has one row fewer
// than the table. A zero base price contributes a zero return rather than
// a division by zero; tables produced by the history provider contain only
// positive prices.
func PeriodicReturns(table *domain.PriceTable) [][]float64 {
	rows := table.Rows()
	cols := table.Columns()
	if rows < 2 {
		return [][]float64{}
	}

	returns := make([][]float64, rows-1)
	for t := 1; t < rows; t++ {
		r := make([]float64, cols)
		for a := 0; a < cols; a++ {
			prev := table.Prices[t-1][a]
			if prev != 0 {
				r[a] = (table.Prices[t][a] - prev) / prev
			}
		}
		returns[t-1] = r
	}
	return returns
}
