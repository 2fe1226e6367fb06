package meta

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
)

// MinConviction is the consensus confidence below which the rule-based
// decision holds.
const MinConviction = 0.6

// Decision sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// Portfolio is the cash available and the shares already held in one ticker.
type Portfolio struct {
	Cash   float64 `json:"cash"`
	Shares int     `json:"shares"`
}

// DecisionRequest is everything the decision stage sees for one ticker.
type DecisionRequest struct {
	Symbol    string
	Price     float64
	Signals   []core.TradingSignal
	Consensus *Consensus
	Risk      RiskAssessment
	Portfolio Portfolio
}

// TradeDecision is the final buy, sell or hold instruction for a ticker.
type TradeDecision struct {
	Action     core.Action `json:"action"`
	Quantity   int         `json:"quantity"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
	Source     string      `json:"source"`
}

// MaxBuyQuantity is floor(cash * max_position_size / price).
func MaxBuyQuantity(req DecisionRequest) int {
	if req.Price <= 0 || req.Portfolio.Cash <= 0 || req.Risk.MaxPositionSize <= 0 {
		return 0
	}
	return int(math.Floor(req.Portfolio.Cash * req.Risk.MaxPositionSize / req.Price))
}

// Decide trades only on a consensus at or above MinConviction: bullish buys
// the full position limit, bearish sells the whole holding. Anything else holds.
func Decide(req DecisionRequest) TradeDecision {
	c := req.Consensus
	switch {
	case req.Price <= 0:
		return hold(0, fmt.Sprintf("No current price for %s; holding.", req.Symbol))
	case c == nil:
		return hold(0, fmt.Sprintf("No agent signals for %s; holding.", req.Symbol))
	case c.Confidence < MinConviction:
		return hold(c.Confidence, fmt.Sprintf("Consensus %s at %.0f%% confidence is below the %.0f%% conviction threshold; holding.",
			c.Signal, c.Confidence*100, MinConviction*100))
	}

	switch c.Signal {
	case core.SignalBullish:
		qty := MaxBuyQuantity(req)
		if qty == 0 {
			return hold(c.Confidence, fmt.Sprintf("Bullish consensus, but a %.1f%% position limit on $%s cash buys no shares at $%.2f; holding.",
				req.Risk.MaxPositionSize*100, humanize.Commaf(req.Portfolio.Cash), req.Price))
		}
		return TradeDecision{
			Action:     core.ActionBuy,
			Quantity:   qty,
			Confidence: indicator.RoundFactor(c.Confidence),
			Reasoning: fmt.Sprintf("Bullish consensus at %.0f%% confidence. Buying %d shares at $%.2f within the %.1f%% position limit (risk score %.2f).",
				c.Confidence*100, qty, req.Price, req.Risk.MaxPositionSize*100, req.Risk.RiskScore),
			Source: SourceRules,
		}
	case core.SignalBearish:
		if req.Portfolio.Shares <= 0 {
			return hold(c.Confidence, "Bearish consensus with no position to sell; holding.")
		}
		return TradeDecision{
			Action:     core.ActionSell,
			Quantity:   req.Portfolio.Shares,
			Confidence: indicator.RoundFactor(c.Confidence),
			Reasoning: fmt.Sprintf("Bearish consensus at %.0f%% confidence. Selling all %d shares held.",
				c.Confidence*100, req.Portfolio.Shares),
			Source: SourceRules,
		}
	default:
		return hold(c.Confidence, "Neutral consensus; holding.")
	}
}

func hold(confidence float64, reasoning string) TradeDecision {
	return TradeDecision{
		Action:     core.ActionHold,
		Confidence: indicator.RoundFactor(confidence),
		Reasoning:  reasoning,
		Source:     SourceRules,
	}
}

// limit caps a proposed decision to what the portfolio and the risk limit
// allow. A trade capped to zero shares becomes a hold.
func limit(req DecisionRequest, d TradeDecision) TradeDecision {
	switch d.Action {
	case core.ActionBuy:
		d.Quantity = min(max(d.Quantity, 0), MaxBuyQuantity(req))
	case core.ActionSell:
		d.Quantity = min(max(d.Quantity, 0), max(req.Portfolio.Shares, 0))
	default:
		d.Quantity = 0
	}
	if d.Quantity == 0 {
		d.Action = core.ActionHold
	}
	return d
}
