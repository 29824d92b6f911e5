package assets

import (
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/pkg/formulas"
)

func analyzerTable() *domain.PriceTable {
	const rows = formulas.TradingDaysPerYear
	prices := make([][]float64, rows)
	dates := make([]string, rows)
	for i := 0; i < rows; i++ {
		f := float64(i)
		prices[i] = []float64{
			100 * math.Pow(1.2, f/float64(rows-1)),
			50 + 2*math.Sin(f/3),
		}
		dates[i] = fmt.Sprintf("2024-%03d", i)
	}
	return &domain.PriceTable{Dates: dates, Symbols: []string{"GRW", "OSC"}, Prices: prices}
}

func TestAnalyze(t *testing.T) {
	stats := NewAnalyzer(zerolog.Nop()).Analyze(analyzerTable())
	require.Len(t, stats, 2)

	growth := stats[0]
	assert.Equal(t, "GRW", growth.Symbol)
	assert.InDelta(t, 120.0, growth.LatestClose, 1e-9)
	require.NotNil(t, growth.CAGR)
	assert.InDelta(t, 0.2, *growth.CAGR, 1e-9, "20% growth over one year")
	require.NotNil(t, growth.MaxDrawdown)
	assert.InDelta(t, 0.0, *growth.MaxDrawdown, 1e-9, "monotonic growth never draws down")

	oscillator := stats[1]
	assert.Equal(t, "OSC", oscillator.Symbol)
	assert.Greater(t, oscillator.AnnualizedVolatility, 0.0)
	require.NotNil(t, oscillator.MaxDrawdown)
	assert.Greater(t, *oscillator.MaxDrawdown, 0.0)
	require.NotNil(t, oscillator.RSI)
	assert.GreaterOrEqual(t, *oscillator.RSI, 0.0)
	assert.LessOrEqual(t, *oscillator.RSI, 100.0)
}

func TestAnalyzeNilTable(t *testing.T) {
	assert.Nil(t, NewAnalyzer(zerolog.Nop()).Analyze(nil))
}

func TestAnalyzeShortSeries(t *testing.T) {
	table := &domain.PriceTable{
		Dates:   []string{"2024-01-02"},
		Symbols: []string{"AAA"},
		Prices:  [][]float64{{100}},
	}

	stats := NewAnalyzer(zerolog.Nop()).Analyze(table)
	require.Len(t, stats, 1)
	assert.Nil(t, stats[0].CAGR)
	assert.Nil(t, stats[0].MaxDrawdown)
	assert.Equal(t, 0.0, stats[0].AnnualizedVolatility)
	assert.Equal(t, 100.0, stats[0].LatestClose)
}
