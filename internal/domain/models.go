// Package domain contains the core data types shared across modules.
package domain

// ClosingPrice is a single daily adjusted closing price for one asset.
type ClosingPrice struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// PriceTable is a date-indexed table of adjusted closing prices.
// Dates are ascending, Symbols are unique, and every cell is populated:
// assets with gaps are dropped before the table is built.
// A PriceTable is immutable once produced; a re-run replaces it wholesale.
type PriceTable struct {
	Dates   []string    `json:"dates"`
	Symbols []string    `json:"symbols"`
	Prices  [][]float64 `json:"prices"` // Prices[row][col], row ↔ Dates, col ↔ Symbols
}

// Rows returns the number of dates in the table.
func (t *PriceTable) Rows() int {
	return len(t.Dates)
}

// Columns returns the number of assets in the table.
func (t *PriceTable) Columns() int {
	return len(t.Symbols)
}

// Column returns a copy of the price series for column index col.
func (t *PriceTable) Column(col int) []float64 {
	series := make([]float64, len(t.Prices))
	for row := range t.Prices {
		series[row] = t.Prices[row][col]
	}
	return series
}

// SymbolIndex returns the column index of symbol, or -1 if absent.
func (t *PriceTable) SymbolIndex(symbol string) int {
	for i, s := range t.Symbols {
		if s == symbol {
			return i
		}
	}
	return -1
}

// PortfolioPoint is one fully-invested long-only portfolio together with
// its mean-variance metrics. Risk is an annualized standard deviation.
type PortfolioPoint struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Risk           float64   `json:"risk"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
}
