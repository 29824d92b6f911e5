// Package frontier approximates the efficient frontier of a set of assets
// by Monte Carlo sampling of the long-only weight simplex, and selects
// distinguished portfolios from the sampled population.
package frontier

import "github.com/aristath/frontier/internal/domain"

// Population is an ordered sequence of sampled portfolios. The order is
// generation order and acts as the indexing contract between the sampler
// and the resolver: external indices dereference the same point for the
// lifetime of the population. A population is regenerated wholesale on new
// data or a new sample count, never updated incrementally.
type Population []domain.PortfolioPoint

// IndexedPoint pairs a portfolio with its stable population index.
type IndexedPoint struct {
	Index int `json:"index"`
	domain.PortfolioPoint
}
