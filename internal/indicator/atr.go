package indicator

import (
	"math"

	"github.com/newthinker/chartwise/internal/core"
)

// DefaultATRPeriod is the Wilder look-back.
const DefaultATRPeriod = 14

// ATRResult holds the Average True Range and its size relative to price.
type ATRResult struct {
	ATR    float64 `json:"atr"`
	ATRPct float64 `json:"atr_pct"`
}

// ATR calculates the Average True Range with Wilder smoothing, seeded by the
// simple mean of the first period true ranges.
func ATR(prices core.PriceSeries, period int) Optional[ATRResult] {
	if period <= 0 || len(prices) < period+1 {
		return None[ATRResult]()
	}

	ranges := TrueRanges(prices)
	p := float64(period)

	atr := mean(ranges[:period])
	for _, tr := range ranges[period:] {
		atr = (atr*(p-1) + tr) / p
	}

	current := prices.Last().Close
	pct := 0.0
	if current != 0 {
		pct = atr / current * 100
	}

	return Some(ATRResult{
		ATR:    RoundPrice(atr),
		ATRPct: RoundFactor(pct),
	})
}

// TrueRanges returns len(prices)-1 true ranges, one per bar after the first.
func TrueRanges(prices core.PriceSeries) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		high, low := prices[i].High, prices[i].Low
		prevClose := prices[i-1].Close
		out = append(out, math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose))))
	}
	return out
}
