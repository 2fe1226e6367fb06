// Package meta reduces the signals of several agents on one ticker to a
// consensus stance, a risk assessment and a trade decision.
package meta

import (
	"fmt"
	"math"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
)

// Consensus is the combined stance of every agent that reported on a ticker.
type Consensus struct {
	Signal       core.SignalDirection `json:"signal"`
	Confidence   float64              `json:"confidence"`
	Agreement    bool                 `json:"agreement"`
	Reasoning    string               `json:"reasoning"`
	WeightedFrom []string             `json:"weighted_from"`
}

// Arbitrate combines signals. Unanimous agents keep their direction at the
// mean confidence. Otherwise each signal votes +1/-1/0 weighted by its
// confidence; the sign of the net picks the direction and the net divided by
// the number of agents is the confidence. Returns false when there is
// nothing to combine.
func Arbitrate(signals []core.TradingSignal) (Consensus, bool) {
	if len(signals) == 0 {
		return Consensus{}, false
	}

	if allSignalsAgree(signals) {
		return Consensus{
			Signal:       signals[0].Signal,
			Confidence:   indicator.RoundFactor(avgConfidence(signals)),
			Agreement:    true,
			Reasoning:    "All agents agree on the signal",
			WeightedFrom: agentNames(signals),
		}, true
	}

	var net float64
	counts := map[core.SignalDirection]int{}
	for _, s := range signals {
		counts[s.Signal]++
		net += direction(s.Signal) * s.Confidence
	}

	signal := core.SignalNeutral
	switch {
	case net > 0:
		signal = core.SignalBullish
	case net < 0:
		signal = core.SignalBearish
	}

	return Consensus{
		Signal:     signal,
		Confidence: indicator.RoundFactor(math.Abs(net) / float64(len(signals))),
		Reasoning: fmt.Sprintf("Agents disagree (bullish %d, bearish %d, neutral %d); confidence-weighted net %+.2f",
			counts[core.SignalBullish], counts[core.SignalBearish], counts[core.SignalNeutral], net),
		WeightedFrom: agentNames(signals),
	}, true
}

func direction(s core.SignalDirection) float64 {
	switch s {
	case core.SignalBullish:
		return 1
	case core.SignalBearish:
		return -1
	default:
		return 0
	}
}

func allSignalsAgree(signals []core.TradingSignal) bool {
	if len(signals) <= 1 {
		return true
	}
	signal := signals[0].Signal
	for _, s := range signals[1:] {
		if s.Signal != signal {
			return false
		}
	}
	return true
}

func avgConfidence(signals []core.TradingSignal) float64 {
	if len(signals) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range signals {
		sum += s.Confidence
	}
	return sum / float64(len(signals))
}

func agentNames(signals []core.TradingSignal) []string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = s.Agent
	}
	return names
}
