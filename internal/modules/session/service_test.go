package session

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// fixtureClient serves one year of noisy synthetic history per symbol.
type fixtureClient struct{}

func (fixtureClient) DailyAdjustedCloses(symbol string, years int) ([]domain.ClosingPrice, error) {
	base := 50.0 + float64(len(symbol))*17
	closes := make([]domain.ClosingPrice, 250)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range closes {
		f := float64(i)
		closes[i] = domain.ClosingPrice{
			Date:  day.AddDate(0, 0, i).Format("2006-01-02"),
			Close: base + 0.1*f + 2*math.Sin(f+base),
		}
	}
	return closes, nil
}

func testService(t *testing.T) *Service {
	t.Helper()

	log := zerolog.Nop()
	provider := history.NewProvider(fixtureClient{}, nil, nil, 1, log)
	stats := statistics.NewService(statistics.NewBuilder(log), nil, log)
	sampler := frontier.NewSampler(11, 2, log)

	return NewService(provider, stats, sampler, NewStore(log), Defaults{
		NumPortfolios: 100,
		RiskFreeRate:  0.03,
	}, log)
}

func TestCreateRunsFullPipeline(t *testing.T) {
	service := testService(t)

	analysis, err := service.Create(context.Background(), CreateRequest{
		Symbols: []string{"AAPL", "MSFT", "GLD"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, []string{"AAPL", "MSFT", "GLD"}, analysis.Table.Symbols)
	assert.Len(t, analysis.Population, 100, "default portfolio count applies")
	assert.Equal(t, 0.03, analysis.RiskFreeRate)
	require.NotNil(t, analysis.Bundle)
	assert.Equal(t, 3, analysis.Bundle.NumAssets())

	stored, ok := service.Get(analysis.ID)
	require.True(t, ok)
	assert.Same(t, analysis, stored)
}

func TestCreateDefaultsToSampleBasket(t *testing.T) {
	service := testService(t)

	analysis, err := service.Create(context.Background(), CreateRequest{NumPortfolios: 10})
	require.NoError(t, err)

	assert.Equal(t, SampleSymbols, analysis.Table.Symbols)
	assert.Len(t, analysis.Population, 10)
}

func TestCreateHonorsRequestOverrides(t *testing.T) {
	service := testService(t)

	rf := 0.05
	analysis, err := service.Create(context.Background(), CreateRequest{
		Symbols:       []string{"AAPL", "MSFT"},
		NumPortfolios: 25,
		RiskFreeRate:  &rf,
	})
	require.NoError(t, err)

	assert.Len(t, analysis.Population, 25)
	assert.Equal(t, 0.05, analysis.RiskFreeRate)
	for _, point := range analysis.Population {
		assert.InDelta(t, (point.ExpectedReturn-0.05)/point.Risk, point.SharpeRatio, 1e-12)
	}
}
