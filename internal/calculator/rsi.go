package calculator

import "math"

// DefaultEpsilon keeps the RS ratio finite when the window holds no losses.
const DefaultEpsilon = 1e-9

// RSISeries computes RSI over a trailing simple mean of gains and losses.
//
// delta[i] = prices[i]-prices[i-1] is split into gain and loss; the mean of
// each over the last `period` deltas gives rs = gain/(loss+epsilon) and
// rsi = 100 - 100/(1+rs). The first defined value is at index `period`;
// earlier positions are NaN.
func RSISeries(prices []float64, period int, epsilon float64) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) <= period {
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(prices); i++ {
		// Window over deltas i-period+1 .. i; each mean is recomputed so
		// rounding never pushes it below zero.
		avgGain, _ := CalculateSMA(gains[i-period+1:i+1], period)
		avgLoss, _ := CalculateSMA(losses[i-period+1:i+1], period)
		denom := avgLoss + epsilon
		if denom == 0 {
			if avgGain == 0 {
				out[i] = 0
			} else {
				out[i] = 100
			}
			continue
		}
		rs := avgGain / denom
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}
