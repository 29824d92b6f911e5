// Package yahoo fetches daily price history from Yahoo Finance using the
// go-yfinance library.
package yahoo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/aristath/frontier/internal/domain"
)

// defaultMaxRetries bounds per-symbol fetch attempts before giving up.
const defaultMaxRetries = 3

// Client implements daily history lookups against Yahoo Finance.
type Client struct {
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a Yahoo Finance client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		maxRetries: defaultMaxRetries,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// DailyAdjustedCloses fetches the adjusted daily closing series for one
// symbol over the last `years` years, ascending by date. Transient fetch
// failures are retried with exponential backoff.
func (c *Client) DailyAdjustedCloses(symbol string, years int) ([]domain.ClosingPrice, error) {
	if years <= 0 {
		years = 5
	}
	period := fmt.Sprintf("%dy", years)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			c.log.Warn().
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Retrying history fetch")
			time.Sleep(wait)
		}

		closes, err := c.fetchOnce(symbol, period)
		if err != nil {
			lastErr = err
			continue
		}
		return closes, nil
	}
	return nil, fmt.Errorf("failed to fetch history for %s after %d attempts: %w",
		symbol, c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(symbol, period string) ([]domain.ClosingPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}
	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	closes := make([]domain.ClosingPrice, 0, len(bars))
	for _, bar := range bars {
		price := bar.AdjClose
		if price == 0 {
			price = bar.Close
		}
		// Yahoo occasionally returns null rows as zeros; skip them so the
		// caller sees only real observations.
		if price <= 0 {
			continue
		}
		closes = append(closes, domain.ClosingPrice{
			Date:  bar.Date.Format("2006-01-02"),
			Close: price,
		})
	}
	return closes, nil
}
