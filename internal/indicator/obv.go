package indicator

import "github.com/newthinker/chartwise/internal/core"

// MinOBVLength is both the minimum history and the slope window.
const MinOBVLength = 20

// OBVTrend is the direction of OBV over the slope window.
type OBVTrend string

const (
	OBVRising  OBVTrend = "rising"
	OBVFalling OBVTrend = "falling"
	OBVFlat    OBVTrend = "flat"
)

// Divergence compares OBV direction to price direction.
type Divergence string

const (
	DivergenceBullish   Divergence = "bullish divergence"
	DivergenceBearish   Divergence = "bearish divergence"
	DivergenceUptrend   Divergence = "confirmed uptrend"
	DivergenceDowntrend Divergence = "confirmed downtrend"
	DivergenceNone      Divergence = "no clear divergence"
)

// OBVResult holds the final On-Balance Volume and its classification.
type OBVResult struct {
	OBV        int64      `json:"obv"`
	Trend      OBVTrend   `json:"trend"`
	Divergence Divergence `json:"divergence"`
}

// OBV calculates On-Balance Volume starting at zero on the first bar.
func OBV(prices core.PriceSeries) Optional[OBVResult] {
	if len(prices) < MinOBVLength {
		return None[OBVResult]()
	}

	series := OBVSeries(prices)

	n := len(prices)
	obvSlope := float64(series[n-1]-series[n-MinOBVLength]) / MinOBVLength
	priceSlope := (prices[n-1].Close - prices[n-MinOBVLength].Close) / MinOBVLength

	trend := OBVFlat
	switch {
	case obvSlope > 0:
		trend = OBVRising
	case obvSlope < 0:
		trend = OBVFalling
	}

	return Some(OBVResult{
		OBV:        series[n-1],
		Trend:      trend,
		Divergence: classifyDivergence(obvSlope, priceSlope),
	})
}

// OBVSeries returns the running OBV per bar; ties leave it unchanged.
func OBVSeries(prices core.PriceSeries) []int64 {
	out := make([]int64, len(prices))
	var obv int64
	for i := 1; i < len(prices); i++ {
		switch {
		case prices[i].Close > prices[i-1].Close:
			obv += prices[i].Volume
		case prices[i].Close < prices[i-1].Close:
			obv -= prices[i].Volume
		}
		out[i] = obv
	}
	return out
}

func classifyDivergence(obvSlope, priceSlope float64) Divergence {
	switch {
	case obvSlope > 0 && priceSlope < 0:
		return DivergenceBullish
	case obvSlope < 0 && priceSlope > 0:
		return DivergenceBearish
	case obvSlope > 0 && priceSlope > 0:
		return DivergenceUptrend
	case obvSlope < 0 && priceSlope < 0:
		return DivergenceDowntrend
	default:
		return DivergenceNone
	}
}
