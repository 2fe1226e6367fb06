package indicator

import "github.com/newthinker/chartwise/internal/core"

// SMA returns the mean of the most recent window closes.
func SMA(prices core.PriceSeries, window int) Optional[float64] {
	if window <= 0 || len(prices) < window {
		return None[float64]()
	}
	return Some(mean(prices.Tail(window).Closes()))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func last(values []float64) float64 {
	return values[len(values)-1]
}
