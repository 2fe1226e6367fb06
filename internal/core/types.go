package core

import (
	"fmt"
	"time"
)

// PricePoint is one trading-period observation (a daily bar).
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IsValid checks the bar satisfies low <= {open,close} <= high with positive prices.
func (p PricePoint) IsValid() bool {
	if p.Low <= 0 || p.High < p.Low || p.Volume < 0 {
		return false
	}
	return p.Open >= p.Low && p.Open <= p.High && p.Close >= p.Low && p.Close <= p.High
}

// PriceSeries is an ordered sequence of bars, oldest first. The last element is current.
type PriceSeries []PricePoint

// Closes extracts closing prices
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Highs extracts high prices
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.High
	}
	return out
}

// Lows extracts low prices
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Low
	}
	return out
}

// Volumes extracts volumes
func (s PriceSeries) Volumes() []int64 {
	out := make([]int64, len(s))
	for i, p := range s {
		out[i] = p.Volume
	}
	return out
}

// Last returns the current bar. It panics on an empty series.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// Tail returns the most recent n bars (the whole series when n >= len).
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Validate reports the first malformed bar, if any.
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if !p.IsValid() {
			return WrapError(ErrInvalidSeries,
				fmt.Errorf("bar %d (%s): o=%.4f h=%.4f l=%.4f c=%.4f v=%d",
					i, p.Date.Format("2006-01-02"), p.Open, p.High, p.Low, p.Close, p.Volume))
		}
	}
	return nil
}

// SignalDirection is the stance an agent takes on a ticker.
type SignalDirection string

const (
	SignalBullish SignalDirection = "bullish"
	SignalBearish SignalDirection = "bearish"
	SignalNeutral SignalDirection = "neutral"
)

// ParseSignalDirection accepts the three known directions, case-sensitively.
func ParseSignalDirection(s string) (SignalDirection, bool) {
	switch SignalDirection(s) {
	case SignalBullish, SignalBearish, SignalNeutral:
		return SignalDirection(s), true
	}
	return "", false
}

// TradingSignal is the output of one analysis agent for one ticker.
type TradingSignal struct {
	Agent       string          `json:"agent"`
	Symbol      string          `json:"symbol"`
	Signal      SignalDirection `json:"signal"`
	Confidence  float64         `json:"confidence"` // 0.0 - 1.0
	Reasoning   string          `json:"reasoning"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Action is a trade instruction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// ParseAction accepts the three known actions, case-sensitively.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionBuy, ActionSell, ActionHold:
		return Action(s), true
	}
	return "", false
}
