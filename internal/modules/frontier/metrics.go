package frontier

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
	"github.com/aristath/frontier/pkg/formulas"
)

// riskEpsilon is the numerical floor below which risk counts as zero.
const riskEpsilon = 1e-12

// MetricsCalculator evaluates a single caller-supplied allocation against
// a price table.
//
// Its return convention deliberately differs from the sampler's: the
// expected return is the weighted sum of per-asset CAGRs
// ((final/initial)^(1/years) - 1), not the annualized mean of periodic
// returns. Both conventions exist in the source system and are kept as
// distinct, named computations. Risk uses the same annualized covariance
// matrix as the statistics builder.
type MetricsCalculator struct {
	builder *statistics.Builder
	log     zerolog.Logger
}

// NewMetricsCalculator creates a metrics calculator.
func NewMetricsCalculator(builder *statistics.Builder, log zerolog.Logger) *MetricsCalculator {
	return &MetricsCalculator{
		builder: builder,
		log:     log.With().Str("component", "metrics").Logger(),
	}
}

// Metrics computes the CAGR-based expected return, annualized risk, and
// Sharpe ratio for one weight vector. Weights need not sum to 1; they are
// normalized by their sum. Fails with ErrInvalidWeights on a length
// mismatch or a non-positive sum, statistics.ErrInsufficientData when the
// table is too short, and ErrDegenerateRisk when the portfolio variance is
// numerically zero.
func (c *MetricsCalculator) Metrics(table *domain.PriceTable, weights []float64, riskFreeRate float64) (domain.PortfolioPoint, error) {
	var zero domain.PortfolioPoint

	if table == nil {
		return zero, fmt.Errorf("%w: no price table", ErrInvalidWeights)
	}
	if len(weights) != table.Columns() {
		return zero, fmt.Errorf("%w: expected %d weights, got %d",
			ErrInvalidWeights, table.Columns(), len(weights))
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return zero, fmt.Errorf("%w: weights sum to %g", ErrInvalidWeights, sum)
	}

	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / sum
	}

	bundle, err := c.builder.Build(table)
	if err != nil {
		return zero, err
	}

	var expectedReturn float64
	for col, w := range normalized {
		cagr := formulas.CAGR(table.Column(col))
		if cagr == nil {
			return zero, fmt.Errorf("%w: cannot compute CAGR for %s",
				statistics.ErrInsufficientData, table.Symbols[col])
		}
		expectedReturn += w * *cagr
	}

	wVec := mat.NewVecDense(len(normalized), normalized)
	variance := mat.Inner(wVec, bundle.Covariance, wVec)
	if variance < 0 {
		variance = 0
	}
	risk := math.Sqrt(variance)
	if risk < riskEpsilon {
		return zero, fmt.Errorf("%w: cannot compute Sharpe ratio", ErrDegenerateRisk)
	}

	point := domain.PortfolioPoint{
		Weights:        normalized,
		ExpectedReturn: expectedReturn,
		Risk:           risk,
		SharpeRatio:    (expectedReturn - riskFreeRate) / risk,
	}

	c.log.Debug().
		Float64("expected_return", point.ExpectedReturn).
		Float64("risk", point.Risk).
		Float64("sharpe", point.SharpeRatio).
		Msg("Calculated portfolio metrics")

	return point, nil
}
