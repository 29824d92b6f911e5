package frontier

import (
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
	"github.com/aristath/frontier/pkg/formulas"
)

// metricsTable builds a one-year table where asset A doubles with a bit of
// noise and asset B grows 10% with opposite-phase noise.
func metricsTable() *domain.PriceTable {
	const rows = formulas.TradingDaysPerYear
	prices := make([][]float64, rows)
	dates := make([]string, rows)
	for i := 0; i < rows; i++ {
		f := float64(i)
		trendA := 100 * math.Pow(2, f/float64(rows-1))
		trendB := 100 * math.Pow(1.1, f/float64(rows-1))
		noise := 0.01 * math.Sin(f)
		if i == 0 || i == rows-1 {
			// Clean endpoints keep the per-asset CAGRs exact.
			noise = 0
		}
		prices[i] = []float64{trendA * (1 + noise), trendB * (1 - noise)}
		dates[i] = fmt.Sprintf("2024-%03d", i)
	}
	return &domain.PriceTable{Dates: dates, Symbols: []string{"AAA", "BBB"}, Prices: prices}
}

func newCalculator() *MetricsCalculator {
	return NewMetricsCalculator(statistics.NewBuilder(zerolog.Nop()), zerolog.Nop())
}

func TestMetricsCAGRWeightedReturn(t *testing.T) {
	table := metricsTable()

	// Unnormalized weights exercise the renormalization path.
	result, err := newCalculator().Metrics(table, []float64{2, 2}, 0.03)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.Weights[0], 1e-12)
	assert.InDelta(t, 0.5, result.Weights[1], 1e-12)

	// Expected return is the weighted sum of per-asset CAGRs: A doubled
	// over one year (CAGR 1.0), B grew 10%.
	assert.InDelta(t, 0.5*1.0+0.5*0.1, result.ExpectedReturn, 1e-9)
	assert.Greater(t, result.Risk, 0.0)
	assert.InDelta(t, (result.ExpectedReturn-0.03)/result.Risk, result.SharpeRatio, 1e-12)
}

func TestMetricsSingleAssetConcentration(t *testing.T) {
	table := metricsTable()

	result, err := newCalculator().Metrics(table, []float64{1, 0}, 0.03)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.ExpectedReturn, 1e-9, "all weight on the doubling asset")
}

func TestMetricsInvalidWeights(t *testing.T) {
	table := metricsTable()
	calc := newCalculator()

	_, err := calc.Metrics(nil, []float64{1}, 0.03)
	assert.ErrorIs(t, err, ErrInvalidWeights, "nil table")

	_, err = calc.Metrics(table, []float64{1}, 0.03)
	assert.ErrorIs(t, err, ErrInvalidWeights, "length mismatch")

	_, err = calc.Metrics(table, []float64{0, 0}, 0.03)
	assert.ErrorIs(t, err, ErrInvalidWeights, "zero sum")

	_, err = calc.Metrics(table, []float64{1, -2}, 0.03)
	assert.ErrorIs(t, err, ErrInvalidWeights, "negative sum")
}

func TestMetricsDegenerateRisk(t *testing.T) {
	// Constant compounding means constant periodic returns: zero variance.
	const rows = formulas.TradingDaysPerYear
	prices := make([][]float64, rows)
	dates := make([]string, rows)
	for i := 0; i < rows; i++ {
		prices[i] = []float64{100 * math.Pow(1.5, float64(i)/float64(rows-1))}
		dates[i] = fmt.Sprintf("2024-%03d", i)
	}
	table := &domain.PriceTable{Dates: dates, Symbols: []string{"AAA"}, Prices: prices}

	_, err := newCalculator().Metrics(table, []float64{1}, 0.03)
	assert.ErrorIs(t, err, ErrDegenerateRisk)
}

func TestMetricsInsufficientData(t *testing.T) {
	table := &domain.PriceTable{
		Dates:   []string{"2024-01-02"},
		Symbols: []string{"AAA"},
		Prices:  [][]float64{{100}},
	}

	_, err := newCalculator().Metrics(table, []float64{1}, 0.03)
	assert.ErrorIs(t, err, statistics.ErrInsufficientData)
}
