// Package rules is a deterministic technical analyst. Each indicator casts a
// bullish, bearish or abstaining vote and the tally becomes the signal.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
)

// Name is the agent's registry key.
const Name = "rules"

// Confidence band: a neutral or split vote sits at the floor, a unanimous
// vote reaches the ceiling.
const (
	confidenceFloor = 0.5
	confidenceSpan  = 0.4
)

type vote struct {
	indicator string
	value     int // +1 bullish, -1 bearish, 0 abstain
	reason    string
}

// Agent implements agent.Agent without any model calls.
type Agent struct{}

// New creates the rules agent.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Name() string {
	return Name
}

// Analyze tallies indicator votes into a signal.
func (a *Agent) Analyze(ctx context.Context, in agent.Input) (core.TradingSignal, error) {
	if len(in.Prices) == 0 {
		return agent.NoDataSignal(in.Symbol), nil
	}

	rep, ok := in.Report.Get()
	if !ok {
		return core.TradingSignal{
			Signal:     core.SignalNeutral,
			Confidence: 0.1,
			Reasoning: fmt.Sprintf("Only %d trading days of history for %s; no indicator could be computed.",
				len(in.Prices), in.Symbol),
		}, nil
	}

	votes := castVotes(rep)
	if len(votes) == 0 {
		return core.TradingSignal{Signal: core.SignalNeutral, Confidence: 0.1, Reasoning: "No indicator votes available."}, nil
	}

	score := 0
	reasons := make([]string, 0, len(votes))
	for _, v := range votes {
		score += v.value
		reasons = append(reasons, fmt.Sprintf("%s: %s (%+d)", v.indicator, v.reason, v.value))
	}

	signal := core.SignalNeutral
	switch {
	case score > 0:
		signal = core.SignalBullish
	case score < 0:
		signal = core.SignalBearish
	}

	agreement := float64(abs(score)) / float64(len(votes))
	confidence := indicator.RoundFactor(confidenceFloor + confidenceSpan*agreement)

	return core.TradingSignal{
		Signal:     signal,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("Net score %+d across %d indicators. %s.",
			score, len(votes), strings.Join(reasons, "; ")),
	}, nil
}

// castVotes returns one vote per present sub-report, in report order.
func castVotes(r indicator.Report) []vote {
	var votes []vote

	if t, ok := r.Trend.Get(); ok {
		v := vote{indicator: "MA alignment", reason: string(t.MAAlignment)}
		switch t.MAAlignment {
		case indicator.AlignmentBullish:
			v.value = 1
		case indicator.AlignmentBearish:
			v.value = -1
		}
		votes = append(votes, v)
	}

	if rsi, ok := r.RSI.Get(); ok {
		v := vote{indicator: "RSI", reason: fmt.Sprintf("%.1f", rsi)}
		switch {
		case rsi > 70:
			v.value, v.reason = -1, v.reason+" overbought"
		case rsi < 30:
			v.value, v.reason = 1, v.reason+" oversold"
		case rsi > 60:
			v.value, v.reason = 1, v.reason+" bullish momentum"
		case rsi < 40:
			v.value, v.reason = -1, v.reason+" bearish momentum"
		}
		votes = append(votes, v)
	}

	if m, ok := r.MACD.Get(); ok {
		v := vote{indicator: "MACD", reason: string(m.Crossover)}
		switch {
		case m.Crossover == indicator.CrossoverBullish:
			v.value = 1
		case m.Crossover == indicator.CrossoverBearish:
			v.value = -1
		case m.Histogram > 0:
			v.value, v.reason = 1, "histogram positive"
		case m.Histogram < 0:
			v.value, v.reason = -1, "histogram negative"
		}
		votes = append(votes, v)
	}

	if s, ok := r.Stochastic.Get(); ok {
		v := vote{indicator: "Stochastic", reason: fmt.Sprintf("%%K %.1f", s.PctK)}
		switch {
		case s.PctK > 80:
			v.value, v.reason = -1, v.reason+" overbought"
		case s.PctK < 20:
			v.value, v.reason = 1, v.reason+" oversold"
		}
		votes = append(votes, v)
	}

	if b, ok := r.Bollinger.Get(); ok {
		v := vote{indicator: "Bollinger", reason: fmt.Sprintf("%%B %.2f", b.PctB)}
		switch {
		case b.PctB > 1:
			v.value, v.reason = -1, v.reason+" above upper band"
		case b.PctB < 0:
			v.value, v.reason = 1, v.reason+" below lower band"
		}
		votes = append(votes, v)
	}

	if o, ok := r.OBV.Get(); ok {
		v := vote{indicator: "OBV", reason: string(o.Divergence)}
		switch o.Divergence {
		case indicator.DivergenceBullish, indicator.DivergenceUptrend:
			v.value = 1
		case indicator.DivergenceBearish, indicator.DivergenceDowntrend:
			v.value = -1
		}
		votes = append(votes, v)
	}

	if vol, ok := r.Volume.Get(); ok {
		v := vote{indicator: "Volume", reason: string(vol.Character)}
		switch vol.Character {
		case indicator.VolumeAccumulation:
			v.value = 1
		case indicator.VolumeDistribution:
			v.value = -1
		}
		votes = append(votes, v)
	}

	return votes
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
