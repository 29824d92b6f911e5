package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/history"
)

// RefreshPricesJob refetches the price cache for a fixed symbol set so the
// first session of the day starts from a warm, valid cache.
type RefreshPricesJob struct {
	provider *history.Provider
	symbols  []string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshPricesJob creates a price refresh job.
func NewRefreshPricesJob(provider *history.Provider, symbols []string, log zerolog.Logger) *RefreshPricesJob {
	return &RefreshPricesJob{
		provider: provider,
		symbols:  symbols,
		timeout:  10 * time.Minute,
		log:      log.With().Str("job", "refresh_prices").Logger(),
	}
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Run refetches price history and replaces the cache wholesale.
func (j *RefreshPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.provider.Refresh(ctx, j.symbols); err != nil {
		return err
	}

	j.log.Info().Strs("symbols", j.symbols).Msg("Price cache refreshed")
	return nil
}
