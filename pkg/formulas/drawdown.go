package formulas

// MaxDrawdown returns the largest peak-to-trough loss in a price series as
// a positive fraction (0.25 = 25% below the prior peak). Returns nil when
// fewer than two prices are available.
func MaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			if dd := (peak - price) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return &maxDrawdown
}
