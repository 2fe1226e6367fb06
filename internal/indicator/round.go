package indicator

import "github.com/shopspring/decimal"

// Output precision per value category. Values end up verbatim in generated
// text, so every indicator rounds through these helpers only.
const (
	PricePlaces      = 2 // price-scale: averages, bands, ATR, levels
	FactorPlaces     = 2 // %B, ATR % of price, relative volume
	RatioPlaces      = 4 // MACD, bandwidth, period returns
	OscillatorPlaces = 1 // RSI, stochastic, distance from period high/low
)

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPrice rounds a price-scale value.
func RoundPrice(v float64) float64 { return roundTo(v, PricePlaces) }

// RoundFactor rounds a multiplier or band-position value.
func RoundFactor(v float64) float64 { return roundTo(v, FactorPlaces) }

// RoundRatio rounds a ratio-scale value.
func RoundRatio(v float64) float64 { return roundTo(v, RatioPlaces) }

// RoundOscillator rounds a 0-100 oscillator or percentage value.
func RoundOscillator(v float64) float64 { return roundTo(v, OscillatorPlaces) }
