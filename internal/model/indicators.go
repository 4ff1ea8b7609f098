package model

import "math"

// IndicatorFrame holds indicator series aligned index-for-index with the
// input prices. Undefined positions hold NaN.
type IndicatorFrame struct {
	Prices  []float64
	EMAFast []float64
	EMASlow []float64
	RSI     []float64
}

// Len returns the number of rows in the frame.
func (f *IndicatorFrame) Len() int { return len(f.Prices) }

// Valid reports whether every indicator is defined at row i.
func (f *IndicatorFrame) Valid(i int) bool {
	if i < 0 || i >= len(f.Prices) {
		return false
	}
	return !math.IsNaN(f.EMAFast[i]) && !math.IsNaN(f.EMASlow[i]) && !math.IsNaN(f.RSI[i])
}

// ValidRows returns the indices of all fully defined rows, oldest first.
func (f *IndicatorFrame) ValidRows() []int {
	rows := make([]int, 0, len(f.Prices))
	for i := range f.Prices {
		if f.Valid(i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// Row returns the indicator values at index i.
func (f *IndicatorFrame) Row(i int) IndicatorRow {
	return IndicatorRow{
		Index:   i,
		Price:   f.Prices[i],
		EMAFast: f.EMAFast[i],
		EMASlow: f.EMASlow[i],
		RSI:     f.RSI[i],
	}
}

// IndicatorRow is one aligned row of an IndicatorFrame.
type IndicatorRow struct {
	Index   int
	Price   float64
	EMAFast float64
	EMASlow float64
	RSI     float64
}
