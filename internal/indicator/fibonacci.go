package indicator

import (
	"math"

	"github.com/newthinker/chartwise/internal/core"
)

// MinFibonacciLength is the minimum history for a retracement.
const MinFibonacciLength = 20

// fibonacciRatios are the standard retracement fractions, high to low.
var fibonacciRatios = []struct {
	label    string
	fraction float64
}{
	{"0.0%", 0},
	{"23.6%", 0.236},
	{"38.2%", 0.382},
	{"50.0%", 0.5},
	{"61.8%", 0.618},
	{"78.6%", 0.786},
	{"100.0%", 1.0},
}

// FibLevel is one labelled retracement price.
type FibLevel struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// FibLevels are ordered from swing high (0%) to swing low (100%).
type FibLevels []FibLevel

// Get looks a level up by label.
func (l FibLevels) Get(label string) (float64, bool) {
	for _, lvl := range l {
		if lvl.Label == label {
			return lvl.Price, true
		}
	}
	return 0, false
}

// FibonacciResult holds retracement levels for the supplied window.
type FibonacciResult struct {
	Levels       FibLevels `json:"levels"`
	NearestLevel string    `json:"nearest_level"`
	SwingHigh    float64   `json:"swing_high"`
	SwingLow     float64   `json:"swing_low"`
}

// Fibonacci computes retracement levels between the window's highest high and
// lowest low. Absent when the range is degenerate.
func Fibonacci(prices core.PriceSeries) Optional[FibonacciResult] {
	if len(prices) < MinFibonacciLength {
		return None[FibonacciResult]()
	}

	swingHigh, swingLow := maxOf(prices.Highs()), minOf(prices.Lows())
	if swingHigh == swingLow {
		return None[FibonacciResult]()
	}

	diff := swingHigh - swingLow
	current := prices.Last().Close

	levels := make(FibLevels, 0, len(fibonacciRatios))
	nearest, nearestDist := "", math.Inf(1)
	for _, r := range fibonacciRatios {
		raw := swingHigh - r.fraction*diff
		if r.fraction == 1 {
			// high - (high-low) need not round-trip to low exactly
			raw = swingLow
		}
		price := RoundPrice(raw)
		levels = append(levels, FibLevel{Label: r.label, Price: price})

		if dist := math.Abs(current - price); dist < nearestDist {
			nearest, nearestDist = r.label, dist
		}
	}

	return Some(FibonacciResult{
		Levels:       levels,
		NearestLevel: nearest,
		SwingHigh:    RoundPrice(swingHigh),
		SwingLow:     RoundPrice(swingLow),
	})
}
