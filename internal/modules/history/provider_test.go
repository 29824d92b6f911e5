package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/domain"
)

// stubClient serves canned series and records call counts.
type stubClient struct {
	mu     sync.Mutex
	series map[string][]domain.ClosingPrice
	errs   map[string]error
	calls  map[string]int
}

func (c *stubClient) DailyAdjustedCloses(symbol string, years int) ([]domain.ClosingPrice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[symbol]++
	if err, ok := c.errs[symbol]; ok {
		return nil, err
	}
	return c.series[symbol], nil
}

func (c *stubClient) callCount(symbol string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[symbol]
}

// syntheticCloses builds n consecutive trading days of gently rising prices.
func syntheticCloses(n int, base float64) []domain.ClosingPrice {
	closes := make([]domain.ClosingPrice, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		closes[i] = domain.ClosingPrice{
			Date:  day.AddDate(0, 0, i).Format("2006-01-02"),
			Close: base + float64(i)*0.5,
		}
	}
	return closes
}

func cachedProvider(t *testing.T, client Client) *Provider {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "prices.db"),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db.Conn(), zerolog.Nop())
	require.NoError(t, store.Init())

	return NewProvider(client, store, NewValidator(24*time.Hour, zerolog.Nop()), 1, zerolog.Nop())
}

func TestPriceTableFetchesAndAligns(t *testing.T) {
	client := &stubClient{series: map[string][]domain.ClosingPrice{
		"AAPL": syntheticCloses(250, 180),
		"MSFT": syntheticCloses(250, 370),
	}}
	provider := NewProvider(client, nil, nil, 1, zerolog.Nop())

	table, err := provider.PriceTable(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, table.Symbols)
	assert.Equal(t, 250, table.Rows())
	assert.Equal(t, 180.0, table.Prices[0][0])
	assert.Equal(t, 370.0, table.Prices[0][1])
}

func TestPriceTableExcludesFailingSymbol(t *testing.T) {
	client := &stubClient{
		series: map[string][]domain.ClosingPrice{
			"AAPL": syntheticCloses(250, 180),
			"MSFT": syntheticCloses(250, 370),
		},
		errs: map[string]error{"BAD": errors.New("upstream 500")},
	}
	provider := NewProvider(client, nil, nil, 1, zerolog.Nop())

	table, err := provider.PriceTable(context.Background(), []string{"AAPL", "BAD", "MSFT"})
	require.NoError(t, err, "one bad symbol must not fail the batch")
	assert.Equal(t, []string{"AAPL", "MSFT"}, table.Symbols)
}

func TestPriceTableExcludesThinHistory(t *testing.T) {
	client := &stubClient{series: map[string][]domain.ClosingPrice{
		"AAPL": syntheticCloses(250, 180),
		"IPO":  syntheticCloses(30, 20), // below the 90% coverage floor
	}}
	provider := NewProvider(client, nil, nil, 1, zerolog.Nop())

	table, err := provider.PriceTable(context.Background(), []string{"AAPL", "IPO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, table.Symbols)
}

func TestPriceTableNoUsableSymbols(t *testing.T) {
	client := &stubClient{errs: map[string]error{
		"AAA": errors.New("down"),
		"BBB": errors.New("down"),
	}}
	provider := NewProvider(client, nil, nil, 1, zerolog.Nop())

	_, err := provider.PriceTable(context.Background(), []string{"AAA", "BBB"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPriceTableEmptyRequest(t *testing.T) {
	provider := NewProvider(&stubClient{}, nil, nil, 1, zerolog.Nop())
	_, err := provider.PriceTable(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPriceTableUsesValidCache(t *testing.T) {
	client := &stubClient{series: map[string][]domain.ClosingPrice{
		"AAPL": syntheticCloses(250, 180),
		"MSFT": syntheticCloses(250, 370),
	}}
	provider := cachedProvider(t, client)

	first, err := provider.PriceTable(context.Background(), []string{"MSFT", "AAPL"})
	require.NoError(t, err)
	require.Equal(t, 1, client.callCount("AAPL"))

	second, err := provider.PriceTable(context.Background(), []string{"MSFT", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, client.callCount("AAPL"), "a valid cache must not refetch")
	assert.Equal(t, first.Symbols, second.Symbols)
	assert.Equal(t, first.Prices, second.Prices)
	assert.Equal(t, []string{"MSFT", "AAPL"}, second.Symbols, "request order is preserved")
}

func TestPriceTableRefetchesOnMissingSymbol(t *testing.T) {
	client := &stubClient{series: map[string][]domain.ClosingPrice{
		"AAPL": syntheticCloses(250, 180),
		"GLD":  syntheticCloses(250, 190),
	}}
	provider := cachedProvider(t, client)

	_, err := provider.PriceTable(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	// GLD is absent from the cached snapshot, so the whole snapshot is
	// rebuilt rather than patched.
	table, err := provider.PriceTable(context.Background(), []string{"AAPL", "GLD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GLD"}, table.Symbols)
	assert.Equal(t, 2, client.callCount("AAPL"))
}

func TestRefreshForcesFetch(t *testing.T) {
	client := &stubClient{series: map[string][]domain.ClosingPrice{
		"AAPL": syntheticCloses(250, 180),
	}}
	provider := cachedProvider(t, client)

	_, err := provider.PriceTable(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Equal(t, 1, client.callCount("AAPL"))

	require.NoError(t, provider.Refresh(context.Background(), []string{"AAPL"}))
	assert.Equal(t, 2, client.callCount("AAPL"), "refresh ignores cache validity")
}
