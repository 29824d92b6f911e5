package frontier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// Sampler draws random fully-invested long-only portfolios and evaluates
// their mean-variance metrics.
//
// Each draw takes n independent uniform values and normalizes them by
// their sum. This sampling rule is load-bearing; it is NOT a uniform
// measure on the simplex and biases draws toward the centroid. Do not
// replace it with a Dirichlet draw without flagging the change in
// sampling statistics.
type Sampler struct {
	seed    int64
	workers int
	log     zerolog.Logger
}

// NewSampler creates a sampler. workers <= 1 samples sequentially; larger
// values split the population into contiguous chunks sampled in parallel.
// Output is deterministic for a fixed (seed, workers) pair: each chunk has
// its own seeded generator and writes into pre-allocated slots, so index
// assignment never depends on goroutine scheduling.
func NewSampler(seed int64, workers int, log zerolog.Logger) *Sampler {
	if workers < 1 {
		workers = 1
	}
	return &Sampler{
		seed:    seed,
		workers: workers,
		log:     log.With().Str("component", "sampler").Logger(),
	}
}

// Sample generates numPortfolios random portfolios from the bundle's
// statistics. numPortfolios == 0 yields an empty population; a negative
// count fails with ErrInvalidSampleCount.
func (s *Sampler) Sample(bundle *statistics.Bundle, numPortfolios int, riskFreeRate float64) (Population, error) {
	if numPortfolios < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, numPortfolios)
	}
	if bundle == nil || bundle.NumAssets() == 0 {
		return nil, fmt.Errorf("cannot sample portfolios: statistics bundle has no assets")
	}

	population := make(Population, numPortfolios)
	if numPortfolios == 0 {
		return population, nil
	}

	workers := s.workers
	if workers > numPortfolios {
		workers = numPortfolios
	}
	chunk := (numPortfolios + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > numPortfolios {
			end = numPortfolios
		}
		if start >= end {
			break
		}
		rng := rand.New(rand.NewSource(s.seed + int64(w)))
		g.Go(func() error {
			for i := start; i < end; i++ {
				point, err := drawPortfolio(rng, bundle, riskFreeRate)
				if err != nil {
					return fmt.Errorf("sample %d: %w", i, err)
				}
				population[i] = point
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("num_portfolios", numPortfolios).
		Int("num_assets", bundle.NumAssets()).
		Int("workers", workers).
		Msg("Sampled portfolio population")

	return population, nil
}

// drawPortfolio generates one random weight vector and evaluates it.
func drawPortfolio(rng *rand.Rand, bundle *statistics.Bundle, riskFreeRate float64) (domain.PortfolioPoint, error) {
	n := bundle.NumAssets()
	weights := make([]float64, n)

	sum := 0.0
	for sum == 0 {
		for i := range weights {
			weights[i] = rng.Float64()
			sum += weights[i]
		}
	}
	for i := range weights {
		weights[i] /= sum
	}

	var expectedReturn float64
	for i, w := range weights {
		expectedReturn += w * bundle.MeanReturns[i]
	}

	wVec := mat.NewVecDense(n, weights)
	variance := mat.Inner(wVec, bundle.Covariance, wVec)
	if variance < 0 {
		// Quadratic forms over a PSD matrix can go fractionally negative
		// in floating point.
		variance = 0
	}
	risk := math.Sqrt(variance)
	if risk == 0 {
		return domain.PortfolioPoint{}, ErrDegenerateRisk
	}

	return domain.PortfolioPoint{
		Weights:        weights,
		ExpectedReturn: expectedReturn,
		Risk:           risk,
		SharpeRatio:    (expectedReturn - riskFreeRate) / risk,
	}, nil
}
