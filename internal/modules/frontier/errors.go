package frontier

import "errors"

// Typed failure conditions surfaced by the engine. Nothing in this package
// degrades an error into a default numeric value; callers branch with
// errors.Is and decide whether to re-fetch, re-sample, or report.
var (
	// ErrEmptyPopulation - a selector was invoked before sampling produced
	// any portfolios. A programming error upstream, not a data problem.
	ErrEmptyPopulation = errors.New("portfolio population is empty")

	// ErrIndexOutOfRange - a stale or adversarial index was passed to the
	// resolver.
	ErrIndexOutOfRange = errors.New("portfolio index out of range")

	// ErrInvalidWeights - caller-supplied weights are malformed (wrong
	// length or non-positive sum). Weights are normalized, never otherwise
	// coerced.
	ErrInvalidWeights = errors.New("invalid portfolio weights")

	// ErrDegenerateRisk - the portfolio variance is numerically zero, so
	// the Sharpe ratio is undefined. Reported, never treated as infinity.
	ErrDegenerateRisk = errors.New("portfolio risk is zero")

	// ErrInvalidSampleCount - a negative portfolio count was requested.
	ErrInvalidSampleCount = errors.New("number of portfolios must not be negative")
)
