// Package formulas provides scalar financial calculations shared by the
// engine modules and the per-asset analyzer.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily data.
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean of data, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation of data, or 0 when fewer
// than two values are present.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// PeriodicReturns converts a price series into relative returns:
// r[i] = (p[i+1] - p[i]) / p[i]. Entries with a zero base price yield 0.
func PeriodicReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedVolatility annualizes the standard deviation of daily returns
// by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CAGR returns the compound annual growth rate implied by a daily price
// series: (final/initial)^(1/years) - 1 with years = len/252.
// Returns nil when the series is too short or the initial price is not
// positive.
func CAGR(prices []float64) *float64 {
	if len(prices) < 2 || prices[0] <= 0 || prices[len(prices)-1] < 0 {
		return nil
	}
	years := float64(len(prices)) / TradingDaysPerYear
	if years <= 0 {
		return nil
	}
	growth := math.Pow(prices[len(prices)-1]/prices[0], 1/years) - 1
	return &growth
}
