// Package technicals asks an LLM to synthesize the indicator report into a
// trading signal.
package technicals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/llm"
	"github.com/newthinker/chartwise/internal/report"
	"go.uber.org/zap"
)

// Name is the agent's registry key.
const Name = "technicals"

// SystemPrompt frames the model as a pure technician.
const SystemPrompt = `You are a professional technical analyst. You analyze price action,
momentum, volatility, volume patterns, and market structure to generate trading signals.

Your analysis framework (in order of importance):

1. TREND STRUCTURE: Moving average alignment, multi-timeframe trend direction.
   Always establish the primary trend first.

2. MOMENTUM: RSI (overbought >70 / oversold <30), MACD crossovers,
   Stochastic Oscillator. Look for momentum confirming or diverging from trend.

3. VOLATILITY: Bollinger Bands (squeeze = impending breakout, %B for band position),
   ATR (average daily range, useful for stop placement and risk assessment).

4. VOLUME: On-Balance Volume divergence is a leading indicator.
   Accumulation (heavy volume on up days) vs. Distribution (heavy volume on down days).
   Breakouts on low volume are suspect.

5. STRUCTURE: Support/resistance levels, Fibonacci retracement zones.

SIGNAL QUALITY CHECKLIST:
- Strong signals require MULTIPLE indicators confirming the same direction
- Divergences (e.g., price making new highs but RSI declining) are WARNING signs
- Bollinger Band squeezes often precede significant moves
- Volume should CONFIRM the price move

CRITICAL RULES:
- ONLY reference the technical data provided. Do NOT fabricate indicators.
- If data is marked as "N/A" or insufficient, acknowledge this limitation.
- Be precise: cite specific indicator values, levels, and percentages.
- Do NOT reference news, earnings, or fundamental data.
- State your confidence honestly. Mixed signals should lower confidence.

Respond with a JSON object: {"signal": "bullish" | "bearish" | "neutral", "confidence": 0.0-1.0, "reasoning": "..."}`

const closingInstruction = `
Produce your analysis as a trading signal. Synthesize ALL of the above indicators,
looking for confirmations and divergences across trend, momentum, volatility, and volume.
Cite specific values in your reasoning.`

// Agent is the LLM-backed technical analyst.
type Agent struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// Option configures the agent.
type Option func(*Agent)

// WithMaxTokens caps the model's reply length.
func WithMaxTokens(n int) Option {
	return func(a *Agent) { a.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithLogger attaches a logger for token usage.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates the agent around an LLM provider.
func New(provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		provider:    provider,
		maxTokens:   llm.DefaultMaxTokens,
		temperature: 0.2,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string {
	return Name
}

// Analyze renders the report and asks the model for a signal. With no price
// data it returns a low-confidence neutral signal without calling the model.
func (a *Agent) Analyze(ctx context.Context, in agent.Input) (core.TradingSignal, error) {
	if len(in.Prices) == 0 {
		return agent.NoDataSignal(in.Symbol), nil
	}

	rep, ok := in.Report.Get()
	if !ok {
		// Too little history for any indicator; every section reads N/A.
		rep = indicator.Report{
			Price:        in.Prices.Last().Close,
			Observations: len(in.Prices),
			From:         in.Prices[0].Date,
			To:           in.Prices.Last().Date,
		}
	}

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: SystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: report.Render(in.Symbol, rep) + closingInstruction},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return core.TradingSignal{}, err
	}

	a.logger.Debug("technicals response",
		zap.String("symbol", in.Symbol),
		zap.String("provider", a.provider.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	return parseSignal(resp.Content)
}

type signalReply struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func parseSignal(content string) (core.TradingSignal, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return core.TradingSignal{}, core.WrapError(core.ErrAgentFailed, err)
	}

	var reply signalReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return core.TradingSignal{}, core.WrapError(core.ErrAgentFailed, fmt.Errorf("decoding signal: %w", err))
	}

	direction, ok := core.ParseSignalDirection(strings.ToLower(strings.TrimSpace(reply.Signal)))
	if !ok {
		return core.TradingSignal{}, core.WrapError(core.ErrAgentFailed, fmt.Errorf("unknown signal %q", reply.Signal))
	}

	return core.TradingSignal{
		Signal:     direction,
		Confidence: agent.ClampConfidence(reply.Confidence),
		Reasoning:  strings.TrimSpace(reply.Reasoning),
	}, nil
}
