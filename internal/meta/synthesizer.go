package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/llm"
	"go.uber.org/zap"
)

// Synthesizer asks an LLM for the final trade decision, then holds the reply
// to the risk limit and the current holding.
type Synthesizer struct {
	llm         llm.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// SynthesizerConfig holds synthesizer configuration.
type SynthesizerConfig struct {
	MaxTokens   int
	Temperature float64
}

// NewSynthesizer creates a new decision synthesizer.
func NewSynthesizer(provider llm.Provider, logger *zap.Logger, cfg SynthesizerConfig) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	return &Synthesizer{
		llm:         provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

type decisionReply struct {
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Decide returns the model's decision. Without a price there is nothing to
// size, so it holds without calling the model.
func (s *Synthesizer) Decide(ctx context.Context, req DecisionRequest) (TradeDecision, error) {
	if req.Price <= 0 {
		return Decide(req), nil
	}

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: decisionSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: s.buildPrompt(req)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return TradeDecision{}, fmt.Errorf("LLM error: %w", err)
	}

	s.logger.Debug("decision response",
		zap.String("symbol", req.Symbol),
		zap.String("provider", s.llm.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return TradeDecision{}, core.WrapError(core.ErrLLMFailed, err)
	}
	var reply decisionReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return TradeDecision{}, core.WrapError(core.ErrLLMFailed, fmt.Errorf("decoding decision: %w", err))
	}
	action, ok := core.ParseAction(strings.ToLower(strings.TrimSpace(reply.Action)))
	if !ok {
		return TradeDecision{}, core.WrapError(core.ErrLLMFailed, fmt.Errorf("unknown action %q", reply.Action))
	}

	return limit(req, TradeDecision{
		Action:     action,
		Quantity:   reply.Quantity,
		Confidence: indicator.RoundFactor(agent.ClampConfidence(reply.Confidence)),
		Reasoning:  strings.TrimSpace(reply.Reasoning),
		Source:     SourceLLM,
	}), nil
}

func (s *Synthesizer) buildPrompt(req DecisionRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "TICKER: %s\n", req.Symbol)
	fmt.Fprintf(&sb, "CURRENT PRICE: $%.2f\n\n", req.Price)

	sb.WriteString("PORTFOLIO STATE:\n")
	fmt.Fprintf(&sb, "- Cash Available: $%s\n", humanize.CommafWithDigits(req.Portfolio.Cash, 2))
	fmt.Fprintf(&sb, "- Current Position in %s: %d shares ($%s)\n\n",
		req.Symbol, req.Portfolio.Shares, humanize.CommafWithDigits(float64(req.Portfolio.Shares)*req.Price, 2))

	sb.WriteString("ANALYST SIGNALS:\n")
	if len(req.Signals) == 0 {
		sb.WriteString("- none\n")
	}
	for _, sig := range req.Signals {
		fmt.Fprintf(&sb, "- %s: %s (confidence: %.0f%%)\n  %s\n",
			sig.Agent, sig.Signal, sig.Confidence*100, truncate(sig.Reasoning, 400))
	}
	if c := req.Consensus; c != nil {
		fmt.Fprintf(&sb, "Consensus: %s (%.0f%%) - %s\n", c.Signal, c.Confidence*100, c.Reasoning)
	}
	sb.WriteString("\n")

	r := req.Risk
	sb.WriteString("RISK ASSESSMENT:\n")
	fmt.Fprintf(&sb, "Risk Score: %.0f%%\n", r.RiskScore*100)
	fmt.Fprintf(&sb, "Max Position Size: %.1f%% of portfolio (at most %d shares)\n", r.MaxPositionSize*100, MaxBuyQuantity(req))
	if len(r.RiskFactors) > 0 {
		fmt.Fprintf(&sb, "Risk Factors: %s\n", strings.Join(r.RiskFactors, ", "))
	}
	fmt.Fprintf(&sb, "Assessment: %s\n\n", r.Reasoning)

	sb.WriteString("Make your final trade decision. Respond with JSON containing: action, quantity, confidence, reasoning.\n")
	return sb.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

const decisionSystemPrompt = `You are a portfolio manager responsible for making final trading decisions.
You synthesize the analysts' signals with the risk manager's assessment.

Your approach:
- Weight each analyst's signal by its confidence
- Respect the position limit strictly; never exceed it
- Consider the current position and available cash
- Only trade with high conviction; prefer to hold when signals are mixed, weak, or data was limited

Sizing:
- buy: quantity = floor(cash * max_position_size / price)
- sell: number of shares to sell from current holdings
- hold: quantity 0

Always respond with valid JSON:
{
  "action": "buy" | "sell" | "hold",
  "quantity": 0,
  "confidence": 0.0-1.0,
  "reasoning": "synthesis of all inputs, transparent about data limitations"
}

Frame your analysis as based on the available data, not as investment advice.`
