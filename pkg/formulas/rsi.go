package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// DefaultRSIPeriod is the conventional 14-day RSI window.
const DefaultRSIPeriod = 14

// LatestRSI returns the most recent Relative Strength Index value of a
// closing-price series, or nil when the series is too short for the
// requested period.
func LatestRSI(closes []float64, period int) *float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return nil
	}

	values := talib.Rsi(closes, period)
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && values[i] != 0 {
			v := values[i]
			return &v
		}
	}
	return nil
}
