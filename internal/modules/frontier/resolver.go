package frontier

import "fmt"

// Resolve maps an externally held index (the k-th rendered point) back to
// the corresponding sampled portfolio. It is a pure lookup: it never
// recomputes or resamples, so repeated resolution of the same index on the
// same population returns identical results. Fails with ErrIndexOutOfRange
// for indices outside [0, len(population)).
func Resolve(population Population, index int) (IndexedPoint, error) {
	if index < 0 || index >= len(population) {
		return IndexedPoint{}, fmt.Errorf("%w: index %d, population size %d",
			ErrIndexOutOfRange, index, len(population))
	}
	return IndexedPoint{Index: index, PortfolioPoint: population[index]}, nil
}
