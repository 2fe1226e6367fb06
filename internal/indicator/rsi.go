package indicator

import "github.com/newthinker/chartwise/internal/core"

// DefaultRSIPeriod is the Wilder look-back.
const DefaultRSIPeriod = 14

// RSI calculates the Relative Strength Index with Wilder smoothing. The
// average gain/loss is seeded with the simple mean of the first period deltas.
// Zero average loss yields exactly 100.
func RSI(prices core.PriceSeries, period int) Optional[float64] {
	if period <= 0 || len(prices) < period+1 {
		return None[float64]()
	}

	closes := prices.Closes()
	p := float64(period)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := splitDelta(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= p
	avgLoss /= p

	for i := period + 1; i < len(closes); i++ {
		gain, loss := splitDelta(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		return Some(100.0)
	}
	rs := avgGain / avgLoss
	return Some(RoundOscillator(100.0 - 100.0/(1.0+rs)))
}

// splitDelta returns the positive and negative parts of a close-to-close change.
func splitDelta(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}
