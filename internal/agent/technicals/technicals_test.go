package technicals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply string
	err   error
	reqs  []llm.ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.reply}, nil
}

func rising(n int) core.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.PriceSeries, n)
	for i := range s {
		c := 50 + float64(i)*0.5
		s[i] = core.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

func input(symbol string, prices core.PriceSeries) agent.Input {
	return agent.Input{Symbol: symbol, Prices: prices, Report: indicator.Compute(prices)}
}

func TestAgent_ImplementsAgent(t *testing.T) {
	var _ agent.Agent = (*Agent)(nil)
}

func TestAnalyze_NoPricesSkipsModel(t *testing.T) {
	p := &fakeProvider{}
	sig, err := New(p).Analyze(context.Background(), agent.Input{Symbol: "NVDA"})
	require.NoError(t, err)

	assert.Equal(t, core.SignalNeutral, sig.Signal)
	assert.Equal(t, 0.1, sig.Confidence)
	assert.Empty(t, p.reqs)
}

func TestAnalyze_SendsRenderedReport(t *testing.T) {
	p := &fakeProvider{reply: "```json\n{\"signal\": \"Bullish\", \"confidence\": 0.72, \"reasoning\": \" EMA stack aligned \"}\n```"}
	a := New(p, WithMaxTokens(600), WithTemperature(0.1))

	sig, err := a.Analyze(context.Background(), input("AAPL", rising(60)))
	require.NoError(t, err)

	assert.Equal(t, core.SignalBullish, sig.Signal)
	assert.Equal(t, 0.72, sig.Confidence)
	assert.Equal(t, "EMA stack aligned", sig.Reasoning)

	require.Len(t, p.reqs, 1)
	req := p.reqs[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, 600, req.MaxTokens)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, SystemPrompt, req.SystemPrompt)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Technical data for AAPL (60 trading days")
	assert.Contains(t, req.Messages[0].Content, "11. FIBONACCI RETRACEMENT:")
	assert.Contains(t, req.Messages[0].Content, "Cite specific values")
}

func TestAnalyze_ShortHistoryStillPrompts(t *testing.T) {
	p := &fakeProvider{reply: `{"signal":"neutral","confidence":0.2,"reasoning":"too little data"}`}

	sig, err := New(p).Analyze(context.Background(), input("IPO", rising(5)))
	require.NoError(t, err)
	assert.Equal(t, core.SignalNeutral, sig.Signal)

	require.Len(t, p.reqs, 1)
	assert.Contains(t, p.reqs[0].Messages[0].Content, "3. RSI (14, Wilder): N/A")
}

func TestAnalyze_ClampsConfidence(t *testing.T) {
	p := &fakeProvider{reply: `{"signal":"bearish","confidence":1.4,"reasoning":"x"}`}
	sig, err := New(p).Analyze(context.Background(), input("X", rising(30)))
	require.NoError(t, err)
	assert.Equal(t, 1.0, sig.Confidence)
}

func TestAnalyze_BadReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I think it goes up"},
		{"malformed", `{"signal": bullish}`},
		{"unknown signal", `{"signal":"buy","confidence":0.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeProvider{reply: tt.reply}).Analyze(context.Background(), input("X", rising(30)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrAgentFailed))
		})
	}
}

func TestAnalyze_ProviderError(t *testing.T) {
	boom := core.WrapError(core.ErrLLMFailed, errors.New("503"))
	_, err := New(&fakeProvider{err: boom}).Analyze(context.Background(), input("X", rising(30)))
	assert.True(t, errors.Is(err, core.ErrLLMFailed))
}
