package stats

import "math"

// ForecastBias compares a product's recent forecast total against its
// actual sales over the trailing window and returns a signed bias in
// [-maxBias, maxBias]. Positive means actual exceeded forecast
// (under-forecast), negative means over-forecast.
//
// Branch policy:
//   - zero vs zero: no signal either way, bias is exactly 0
//   - one side exactly zero: square-root dampened magnitude, so a lone
//     unfulfilled forecast reads as slight error rather than total error
//     (zero actuals can be lead-time lag, not a broken forecast)
//   - otherwise: tanh of the symmetric relative error, so extreme ratios
//     saturate smoothly toward the bound instead of diverging
func ForecastBias(forecastTotal, actualTotal, maxBias float64) float64 {
	if forecastTotal <= 0 && actualTotal <= 0 {
		return 0
	}

	if actualTotal <= 0 {
		return math.Min(math.Sqrt(forecastTotal)/forecastTotal, maxBias)
	}
	if forecastTotal <= 0 {
		return -math.Min(math.Sqrt(actualTotal)/actualTotal, maxBias)
	}

	// Both positive: relative error against the smaller side keeps the
	// measure symmetric in forecast vs actual; tanh squashes it.
	rel := (actualTotal - forecastTotal) / math.Min(actualTotal, forecastTotal)
	return maxBias * math.Tanh(rel)
}
