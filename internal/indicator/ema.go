package indicator

import "github.com/newthinker/chartwise/internal/core"

// EMA calculates an exponential moving average series of the same length as
// values. The first element seeds the recursion; no SMA warm-up is used, so
// every EMA-derived indicator shares this convention.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return []float64{}
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(span+1)

	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// EMAValue returns the latest EMA of closes, absent when fewer than span bars exist.
func EMAValue(prices core.PriceSeries, span int) Optional[float64] {
	if span <= 0 || len(prices) < span {
		return None[float64]()
	}
	series := EMA(prices.Closes(), span)
	return Some(series[len(series)-1])
}
