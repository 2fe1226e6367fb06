package indicator

import "github.com/newthinker/chartwise/internal/core"

// Stochastic defaults
const (
	DefaultStochasticK = 14
	DefaultStochasticD = 3
)

// StochasticResult holds the latest %K and its %D average.
type StochasticResult struct {
	PctK float64 `json:"pct_k"`
	PctD float64 `json:"pct_d"`
}

// Stochastic calculates the fast stochastic oscillator. A flat window
// (high == low) reads 50.
func Stochastic(prices core.PriceSeries, kPeriod, dPeriod int) Optional[StochasticResult] {
	if kPeriod <= 0 || dPeriod <= 0 || len(prices) < kPeriod+dPeriod {
		return None[StochasticResult]()
	}

	kValues := make([]float64, 0, len(prices)-kPeriod+1)
	for i := kPeriod - 1; i < len(prices); i++ {
		window := prices[i-kPeriod+1 : i+1]
		high, low := window[0].High, window[0].Low
		for _, p := range window[1:] {
			if p.High > high {
				high = p.High
			}
			if p.Low < low {
				low = p.Low
			}
		}

		if high-low == 0 {
			kValues = append(kValues, 50.0)
			continue
		}
		kValues = append(kValues, (prices[i].Close-low)/(high-low)*100)
	}

	pctK := last(kValues)
	pctD := pctK
	if len(kValues) >= dPeriod {
		pctD = mean(kValues[len(kValues)-dPeriod:])
	}

	return Some(StochasticResult{
		PctK: RoundOscillator(pctK),
		PctD: RoundOscillator(pctD),
	})
}
