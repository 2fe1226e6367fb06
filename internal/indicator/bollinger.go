package indicator

import (
	"math"

	"github.com/newthinker/chartwise/internal/core"
)

// Bollinger defaults
const (
	DefaultBollingerWindow = 20
	DefaultBollingerK      = 2.0
	squeezeThreshold       = 0.75
)

// BollingerResult holds the current bands.
type BollingerResult struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
	PctB      float64 `json:"pct_b"`
	Squeeze   bool    `json:"squeeze"`
}

// Bollinger calculates bands over the latest window closes using population
// standard deviation. Squeeze needs 2*window bars of history and is false otherwise.
func Bollinger(prices core.PriceSeries, window int, k float64) Optional[BollingerResult] {
	if window <= 0 || len(prices) < window {
		return None[BollingerResult]()
	}

	closes := prices.Closes()
	middle, std := meanStd(closes[len(closes)-window:])
	upper := middle + k*std
	lower := middle - k*std

	bandwidth := 0.0
	if middle != 0 {
		bandwidth = (upper - lower) / middle
	}

	pctB := 0.5
	if upper-lower != 0 {
		pctB = (last(closes) - lower) / (upper - lower)
	}

	squeeze := false
	if len(closes) >= 2*window {
		squeeze = bandwidth < squeezeThreshold*averageBandwidth(closes, window, k)
	}

	return Some(BollingerResult{
		Upper:     RoundPrice(upper),
		Middle:    RoundPrice(middle),
		Lower:     RoundPrice(lower),
		Bandwidth: RoundRatio(bandwidth),
		PctB:      RoundFactor(pctB),
		Squeeze:   squeeze,
	})
}

// averageBandwidth is the mean bandwidth over every window-sized slice of closes.
func averageBandwidth(closes []float64, window int, k float64) float64 {
	var sum float64
	count := 0
	for end := window; end <= len(closes); end++ {
		m, s := meanStd(closes[end-window : end])
		if m != 0 {
			sum += (2 * k * s) / m
		}
		count++
	}
	return sum / float64(count)
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return m, math.Sqrt(ss / float64(len(values)))
}
