package frontier

// DefaultEdgeThreshold is the risk band used to pick portfolios near the
// left-most edge of the sampled frontier.
const DefaultEdgeThreshold = 0.001

// MaxSharpe returns the portfolio with the largest Sharpe ratio. Ties are
// broken by first occurrence in generation order.
func MaxSharpe(population Population) (IndexedPoint, error) {
	if len(population) == 0 {
		return IndexedPoint{}, ErrEmptyPopulation
	}

	best := 0
	for i := 1; i < len(population); i++ {
		if population[i].SharpeRatio > population[best].SharpeRatio {
			best = i
		}
	}
	return IndexedPoint{Index: best, PortfolioPoint: population[best]}, nil
}

// MinRisk returns the portfolio with the smallest risk. Ties are broken by
// first occurrence in generation order.
func MinRisk(population Population) (IndexedPoint, error) {
	if len(population) == 0 {
		return IndexedPoint{}, ErrEmptyPopulation
	}

	best := 0
	for i := 1; i < len(population); i++ {
		if population[i].Risk < population[best].Risk {
			best = i
		}
	}
	return IndexedPoint{Index: best, PortfolioPoint: population[best]}, nil
}

// NearMinRiskEdge returns every portfolio whose risk lies within threshold
// of the population minimum, in generation order. A negative threshold
// falls back to DefaultEdgeThreshold; zero returns exactly the points at
// the minimum.
//
// This approximates the left-most edge of the sampled frontier under
// sampling noise. It is not a Pareto set: a point with both higher risk
// and lower return than another can appear when it falls inside the band.
func NearMinRiskEdge(population Population, threshold float64) ([]IndexedPoint, error) {
	minimum, err := MinRisk(population)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = DefaultEdgeThreshold
	}

	var edge []IndexedPoint
	for i, point := range population {
		if point.Risk-minimum.Risk <= threshold {
			edge = append(edge, IndexedPoint{Index: i, PortfolioPoint: point})
		}
	}
	return edge, nil
}
