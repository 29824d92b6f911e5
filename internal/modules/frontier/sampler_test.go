package frontier

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// testBundle builds statistics from a synthetic 3-asset table with enough
// independent movement that every sampled portfolio has positive risk.
func testBundle(t *testing.T) *statistics.Bundle {
	t.Helper()

	const rows = 30
	prices := make([][]float64, rows)
	dates := make([]string, rows)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		f := float64(i)
		prices[i] = []float64{
			100 + f + 4*math.Sin(f),
			80 + 0.5*f + 3*math.Cos(f),
			150 - 0.2*f + 2*math.Sin(2*f),
		}
		dates[i] = day.AddDate(0, 0, i).Format("2006-01-02")
	}

	bundle, err := statistics.NewBuilder(zerolog.Nop()).Build(&domain.PriceTable{
		Dates:   dates,
		Symbols: []string{"AAA", "BBB", "CCC"},
		Prices:  prices,
	})
	require.NoError(t, err)
	return bundle
}

func TestSampleWeightsAreNormalized(t *testing.T) {
	bundle := testBundle(t)
	sampler := NewSampler(42, 1, zerolog.Nop())

	population, err := sampler.Sample(bundle, 200, 0.03)
	require.NoError(t, err)
	require.Len(t, population, 200)

	for i, point := range population {
		sum := 0.0
		for _, w := range point.Weights {
			assert.GreaterOrEqual(t, w, 0.0, "portfolio %d has a negative weight", i)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "portfolio %d weights do not sum to 1", i)
		assert.Greater(t, point.Risk, 0.0, "portfolio %d has zero risk", i)
	}
}

func TestSampleSharpeConsistency(t *testing.T) {
	bundle := testBundle(t)
	sampler := NewSampler(7, 1, zerolog.Nop())

	population, err := sampler.Sample(bundle, 50, 0.03)
	require.NoError(t, err)

	for i, point := range population {
		expected := (point.ExpectedReturn - 0.03) / point.Risk
		assert.InDelta(t, expected, point.SharpeRatio, 1e-12, "portfolio %d", i)
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	bundle := testBundle(t)

	first, err := NewSampler(99, 1, zerolog.Nop()).Sample(bundle, 100, 0.03)
	require.NoError(t, err)
	second, err := NewSampler(99, 1, zerolog.Nop()).Sample(bundle, 100, 0.03)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must reproduce the population")

	other, err := NewSampler(100, 1, zerolog.Nop()).Sample(bundle, 100, 0.03)
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "a different seed should move the draws")
}

func TestSampleParallelDeterministic(t *testing.T) {
	bundle := testBundle(t)

	first, err := NewSampler(5, 4, zerolog.Nop()).Sample(bundle, 101, 0.03)
	require.NoError(t, err)
	second, err := NewSampler(5, 4, zerolog.Nop()).Sample(bundle, 101, 0.03)
	require.NoError(t, err)

	assert.Equal(t, first, second, "chunked sampling must not depend on scheduling")
}

func TestSampleZeroPortfolios(t *testing.T) {
	population, err := NewSampler(1, 1, zerolog.Nop()).Sample(testBundle(t), 0, 0.03)
	require.NoError(t, err)
	assert.Empty(t, population)
}

func TestSampleNegativeCount(t *testing.T) {
	_, err := NewSampler(1, 1, zerolog.Nop()).Sample(testBundle(t), -1, 0.03)
	assert.ErrorIs(t, err, ErrInvalidSampleCount)
}

func TestSampleNilBundle(t *testing.T) {
	_, err := NewSampler(1, 1, zerolog.Nop()).Sample(nil, 10, 0.03)
	assert.Error(t, err)
}
