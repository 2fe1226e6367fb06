package indicator

import "github.com/newthinker/chartwise/internal/core"

// MACD parameters
const (
	MACDFast      = 12
	MACDSlow      = 26
	MACDSignal    = 9
	MinMACDLength = MACDSlow + MACDSignal
)

// Crossover classifies the latest MACD/signal relationship.
type Crossover string

const (
	CrossoverBullish      Crossover = "bullish crossover"
	CrossoverBearish      Crossover = "bearish crossover"
	CrossoverNone         Crossover = "no recent crossover"
	CrossoverInsufficient Crossover = "insufficient data"
)

// MACDResult holds the latest MACD values.
type MACDResult struct {
	MACDLine   float64   `json:"macd_line"`
	SignalLine float64   `json:"signal_line"`
	Histogram  float64   `json:"histogram"`
	Crossover  Crossover `json:"crossover"`
}

// MACD calculates MACD (12, 26, 9). Both EMAs run over the full close history
// and the signal line is the EMA of the whole MACD line.
func MACD(prices core.PriceSeries) Optional[MACDResult] {
	if len(prices) < MinMACDLength {
		return None[MACDResult]()
	}

	closes := prices.Closes()
	fast := EMA(closes, MACDFast)
	slow := EMA(closes, MACDSlow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fast[i] - slow[i]
	}
	signalLine := EMA(macdLine, MACDSignal)

	m, s := last(macdLine), last(signalLine)
	return Some(MACDResult{
		MACDLine:   RoundRatio(m),
		SignalLine: RoundRatio(s),
		Histogram:  RoundRatio(m - s),
		Crossover:  DetectCrossover(macdLine, signalLine),
	})
}

// DetectCrossover compares the sign of macd-signal at the last two indices.
func DetectCrossover(macdLine, signalLine []float64) Crossover {
	n, m := len(macdLine), len(signalLine)
	if n < 2 || m < 2 {
		return CrossoverInsufficient
	}

	prev := macdLine[n-2] - signalLine[m-2]
	curr := macdLine[n-1] - signalLine[m-1]

	switch {
	case prev <= 0 && curr > 0:
		return CrossoverBullish
	case prev >= 0 && curr < 0:
		return CrossoverBearish
	default:
		return CrossoverNone
	}
}
