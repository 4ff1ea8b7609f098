package calculator

import (
	"errors"
	"math"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMAAlpha returns the smoothing weight for a span: 2/(span+1).
func EMAAlpha(span int) float64 {
	return 2.0 / (float64(span) + 1.0)
}

// EMASeries computes the exponential moving average of prices, seeded with
// the first price and defined at every index:
//
//	ema[0] = prices[0]
//	ema[i] = alpha*prices[i] + (1-alpha)*ema[i-1]
//
// A non-positive span yields an all-NaN series.
func EMASeries(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if span <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	if len(prices) == 0 {
		return out
	}
	alpha := EMAAlpha(span)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}
