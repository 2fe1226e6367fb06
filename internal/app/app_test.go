package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/agent/rules"
	"github.com/newthinker/chartwise/internal/config"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/meta"
	"github.com/newthinker/chartwise/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCollector struct {
	name    string
	history map[string]core.PriceSeries
	delay   time.Duration

	mu         sync.Mutex
	start, end time.Time
	inFlight   atomic.Int32
	maxSeen    atomic.Int32
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.start, m.end = start, end
	m.mu.Unlock()

	s, ok := m.history[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrSymbolNotFound, errors.New(symbol))
	}
	return s, nil
}

func trending(n int, step float64) core.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.PriceSeries, n)
	for i := range s {
		c := 100 + float64(i)*step
		s[i] = core.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

func newTestApp(t *testing.T, mc *mockCollector) (*App, *metrics.Registry) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Collector.Provider = mc.name
	cfg.Analysis.HistoryDays = 60
	cfg.Analysis.Concurrency = 2

	a := New(cfg, nil)
	a.now = func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) }
	a.RegisterCollector(mc)
	a.RegisterAgent(rules.New())

	reg := metrics.NewRegistry()
	a.SetMetrics(reg)
	return a, reg
}

func TestApp_New(t *testing.T) {
	a := New(nil, nil)
	require.NotNil(t, a)
	assert.Equal(t, "yahoo", a.Stats()["collector"])
}

func TestApp_FetchHistoryTrimsToDays(t *testing.T) {
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{"AAPL": trending(100, 1)}}
	a, _ := newTestApp(t, mc)

	series, err := a.FetchHistory(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, series, 60)
	assert.Equal(t, 199.0, series.Last().Close)

	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), mc.end)
	assert.Equal(t, mc.end.AddDate(0, 0, -(60*7/5+14)), mc.start)

	series, err = a.FetchHistory(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, series, 10)
}

func assertFetchErrors(t *testing.T, reg *metrics.Registry, collector string, n int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP chartwise_fetch_errors_total Price history fetch failures
# TYPE chartwise_fetch_errors_total counter
chartwise_fetch_errors_total{collector=%q} %d
`, collector, n)
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chartwise_fetch_errors_total"))
}

func TestApp_FetchHistoryRejectsBadBars(t *testing.T) {
	bad := trending(30, 1)
	bad[5].Low = bad[5].High + 1
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{"BAD": bad}}
	a, reg := newTestApp(t, mc)

	_, err := a.FetchHistory(context.Background(), "BAD", 0)
	assert.True(t, errors.Is(err, core.ErrInvalidSeries))
	assertFetchErrors(t, reg, "mock", 1)
}

func TestApp_CollectorNotRegistered(t *testing.T) {
	mc := &mockCollector{name: "mock"}
	a, _ := newTestApp(t, mc)
	a.cfg.Collector.Provider = "csv"

	res := a.AnalyzeTicker(context.Background(), "AAPL")
	assert.True(t, errors.Is(res.Err, core.ErrConfigInvalid))
	assert.Empty(t, res.Signals)
}

func TestApp_AnalyzeTicker(t *testing.T) {
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{"AAPL": trending(120, 0.5)}}
	a, reg := newTestApp(t, mc)

	res := a.AnalyzeTicker(context.Background(), "AAPL")
	require.NoError(t, res.Err)
	assert.Empty(t, res.Error)

	rep, ok := res.Report.Get()
	require.True(t, ok)
	assert.Equal(t, 60, rep.Observations)
	assert.Empty(t, rep.Absent())

	require.Len(t, res.Signals, 1)
	assert.Equal(t, rules.Name, res.Signals[0].Agent)
	assert.Equal(t, "AAPL", res.Signals[0].Symbol)
	require.NotNil(t, res.Consensus)
	assert.Equal(t, res.Signals[0].Signal, res.Consensus.Signal)
	assert.True(t, res.Consensus.Agreement)

	expected := `
# HELP chartwise_reports_computed_total Indicator reports computed, by completeness
# TYPE chartwise_reports_computed_total counter
chartwise_reports_computed_total{status="complete"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chartwise_reports_computed_total"))
	n, err := testutil.GatherAndCount(reg, "chartwise_signals_generated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApp_AnalyzeTickerFetchFailure(t *testing.T) {
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{}}
	a, reg := newTestApp(t, mc)

	res := a.AnalyzeTicker(context.Background(), "GONE")
	assert.True(t, errors.Is(res.Err, core.ErrSymbolNotFound))
	assert.Contains(t, res.Error, "SYMBOL_NOT_FOUND")
	assert.False(t, res.Report.Present())

	// agents still report their no-data stance
	require.Len(t, res.Signals, 1)
	assert.Equal(t, core.SignalNeutral, res.Signals[0].Signal)
	assert.Equal(t, 0.1, res.Signals[0].Confidence)

	require.NotNil(t, res.Risk)
	assert.False(t, res.Risk.Volatility.Present())
	require.NotNil(t, res.Decision)
	assert.Equal(t, core.ActionHold, res.Decision.Action)

	assertFetchErrors(t, reg, "mock", 1)
}

func TestApp_AnalyzeSeriesShortHistory(t *testing.T) {
	a, reg := newTestApp(t, &mockCollector{name: "mock"})

	res := a.AnalyzeSeries(context.Background(), "IPO", trending(10, 1))
	require.NoError(t, res.Err)
	assert.False(t, res.Report.Present())
	require.Len(t, res.Signals, 1)
	assert.Equal(t, 0.1, res.Signals[0].Confidence)

	expected := `
# HELP chartwise_reports_computed_total Indicator reports computed, by completeness
# TYPE chartwise_reports_computed_total counter
chartwise_reports_computed_total{status="absent"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chartwise_reports_computed_total"))
}

func TestApp_AnalyzeSeriesInvalid(t *testing.T) {
	a, _ := newTestApp(t, &mockCollector{name: "mock"})

	bad := trending(30, 1)
	bad[0].Close = -1
	res := a.AnalyzeSeries(context.Background(), "BAD", bad)
	assert.True(t, errors.Is(res.Err, core.ErrInvalidSeries))
	assert.Empty(t, res.Signals)
}

func TestApp_AnalyzeKeepsOrderAndBoundsConcurrency(t *testing.T) {
	history := map[string]core.PriceSeries{}
	symbols := []string{"A", "B", "C", "MISSING", "D", "E"}
	for i, s := range symbols {
		if s != "MISSING" {
			history[s] = trending(80, float64(i+1)*0.1)
		}
	}
	mc := &mockCollector{name: "mock", history: history, delay: 20 * time.Millisecond}
	a, _ := newTestApp(t, mc)

	results := a.Analyze(context.Background(), symbols)
	require.Len(t, results, len(symbols))

	for i, res := range results {
		assert.Equal(t, symbols[i], res.Symbol)
		if res.Symbol == "MISSING" {
			assert.Error(t, res.Err)
		} else {
			assert.NoError(t, res.Err)
			assert.True(t, res.Report.Present())
		}
	}
	assert.LessOrEqual(t, mc.maxSeen.Load(), int32(2))
	assert.GreaterOrEqual(t, mc.maxSeen.Load(), int32(1))
}

func TestApp_AnalyzeProgress(t *testing.T) {
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{"A": trending(80, 1), "B": trending(80, 2)}}
	a, _ := newTestApp(t, mc)

	var calls []int
	results := a.AnalyzeProgress(context.Background(), []string{"A", "B", "C"}, func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})

	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestApp_AnalyzeCanceled(t *testing.T) {
	mc := &mockCollector{name: "mock", history: map[string]core.PriceSeries{"A": trending(80, 1)}}
	a, _ := newTestApp(t, mc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := a.Analyze(ctx, []string{"A", "B", "C"})
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, []string{"A", "B", "C"}[i], res.Symbol)
		assert.Error(t, res.Err)
	}
}

func TestApp_Stats(t *testing.T) {
	a, _ := newTestApp(t, &mockCollector{name: "mock"})
	stats := a.Stats()

	assert.Equal(t, "mock", stats["collector"])
	assert.Equal(t, []string{"rules"}, stats["agents"])
	assert.Equal(t, 60, stats["history_days"])
}

type fixedAgent struct {
	signal core.SignalDirection
	conf   float64
}

func (f fixedAgent) Name() string { return "fixed" }
func (f fixedAgent) Analyze(context.Context, agent.Input) (core.TradingSignal, error) {
	return core.TradingSignal{Signal: f.signal, Confidence: f.conf}, nil
}

type fixedDecider struct {
	decision meta.TradeDecision
	err      error
	calls    atomic.Int32
}

func (d *fixedDecider) Decide(context.Context, meta.DecisionRequest) (meta.TradeDecision, error) {
	d.calls.Add(1)
	return d.decision, d.err
}

func newDecisionApp(t *testing.T, ag agent.Agent) (*App, *metrics.Registry) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Collector.Provider = "mock"
	cfg.Analysis.HistoryDays = 60
	cfg.Portfolio.Positions = map[string]int{"aapl": 7}

	a := New(cfg, nil)
	a.RegisterCollector(&mockCollector{name: "mock"})
	a.RegisterAgent(ag)
	reg := metrics.NewRegistry()
	a.SetMetrics(reg)
	return a, reg
}

func TestApp_AnalyzeSeriesRiskAndDecision(t *testing.T) {
	a, reg := newDecisionApp(t, fixedAgent{signal: core.SignalBearish, conf: 0.9})

	res := a.AnalyzeSeries(context.Background(), "AAPL", trending(60, 0.5))
	require.NoError(t, res.Err)

	require.NotNil(t, res.Risk)
	vol, ok := res.Risk.Volatility.Get()
	require.True(t, ok)
	assert.Greater(t, vol, 0.0)
	assert.LessOrEqual(t, res.Risk.MaxPositionSize, meta.MaxPositionSize)

	require.NotNil(t, res.Decision)
	assert.Equal(t, core.ActionSell, res.Decision.Action)
	assert.Equal(t, 7, res.Decision.Quantity)
	assert.Equal(t, meta.SourceRules, res.Decision.Source)

	expected := `
# HELP chartwise_decisions_total Trade decisions made, by action and source
# TYPE chartwise_decisions_total counter
chartwise_decisions_total{action="sell",source="rules"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chartwise_decisions_total"))
}

func TestApp_BullishDecisionSizedByRisk(t *testing.T) {
	a, _ := newDecisionApp(t, fixedAgent{signal: core.SignalBullish, conf: 0.9})

	series := trending(60, 0.5)
	res := a.AnalyzeSeries(context.Background(), "MSFT", series)
	require.NotNil(t, res.Decision)
	require.NotNil(t, res.Risk)

	price := series.Last().Close
	want := int(math.Floor(100000 * res.Risk.MaxPositionSize / price))
	assert.Equal(t, core.ActionBuy, res.Decision.Action)
	assert.Equal(t, want, res.Decision.Quantity)
	assert.Positive(t, want)
}

func TestApp_DeciderUsedAndFallsBack(t *testing.T) {
	a, _ := newDecisionApp(t, fixedAgent{signal: core.SignalBearish, conf: 0.9})

	d := &fixedDecider{decision: meta.TradeDecision{Action: core.ActionHold, Source: meta.SourceLLM, Reasoning: "wait"}}
	a.SetDecider(d)
	res := a.AnalyzeSeries(context.Background(), "AAPL", trending(60, 0.5))
	require.NotNil(t, res.Decision)
	assert.Equal(t, meta.SourceLLM, res.Decision.Source)
	assert.Equal(t, int32(1), d.calls.Load())

	a.SetDecider(&fixedDecider{err: errors.New("model down")})
	res = a.AnalyzeSeries(context.Background(), "AAPL", trending(60, 0.5))
	require.NotNil(t, res.Decision)
	assert.Equal(t, meta.SourceRules, res.Decision.Source)
	assert.Equal(t, core.ActionSell, res.Decision.Action)
}
