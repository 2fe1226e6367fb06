package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/collector"
	"github.com/newthinker/chartwise/internal/config"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/meta"
	"github.com/newthinker/chartwise/internal/metrics"
	"go.uber.org/zap"
)

// allSections names every sub-report; a zero Report has all of them absent.
var allSections = indicator.Report{}.Absent()

// Result is the outcome of analysing one ticker. Err carries a fetch or
// agent failure; the other fields hold whatever was produced.
type Result struct {
	Symbol    string                               `json:"symbol"`
	Report    indicator.Optional[indicator.Report] `json:"report"`
	Signals   []core.TradingSignal                 `json:"signals"`
	Consensus *meta.Consensus                      `json:"consensus,omitempty"`
	Risk      *meta.RiskAssessment                 `json:"risk,omitempty"`
	Decision  *meta.TradeDecision                  `json:"decision,omitempty"`
	Error     string                               `json:"error,omitempty"`
	Elapsed   time.Duration                        `json:"elapsed_ns"`

	Err error `json:"-"`
}

// Decider turns signals and a risk assessment into a trade decision.
type Decider interface {
	Decide(ctx context.Context, req meta.DecisionRequest) (meta.TradeDecision, error)
}

// App is the analysis pipeline: fetch history, compute the indicator report,
// run agents, assess risk and decide. It holds no per-request state and is
// safe for concurrent use.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	agents     *agent.Engine
	decider    Decider
	metrics    *metrics.Registry
	now        func() time.Time

	mu      sync.RWMutex
	started time.Time
}

// New creates a new App instance
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		agents:     agent.NewEngine(logger),
		now:        time.Now,
		started:    time.Now(),
	}
}

// RegisterCollector adds a collector to the app
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// RegisterAgent adds an agent to the app
func (a *App) RegisterAgent(ag agent.Agent) {
	a.agents.Register(ag)
}

// SetDecider routes trade decisions through d. Without one, or when d
// fails, the rule-based meta.Decide is used.
func (a *App) SetDecider(d Decider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decider = d
}

// SetMetrics attaches a metrics registry. Nil disables business metrics.
func (a *App) SetMetrics(m *metrics.Registry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics = m
}

func (a *App) metricsRegistry() *metrics.Registry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metrics
}

// Collector returns the collector selected by collector.provider.
func (a *App) Collector() (collector.Collector, error) {
	c, ok := a.collectors.Get(a.cfg.Collector.Provider)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector %q not registered (have %v)", a.cfg.Collector.Provider, a.collectors.Names()))
	}
	return c, nil
}

// FetchHistory returns the most recent days trading days for symbol. A
// non-positive days uses analysis.history_days.
func (a *App) FetchHistory(ctx context.Context, symbol string, days int) (core.PriceSeries, error) {
	if days <= 0 {
		days = a.cfg.Analysis.HistoryDays
	}

	c, err := a.Collector()
	if err != nil {
		return nil, err
	}

	end := a.now()
	// trading days to calendar days, plus a holiday buffer
	start := end.AddDate(0, 0, -(days*7/5 + 14))

	series, err := c.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		a.metricsRegistry().RecordFetchError(c.Name())
		return nil, err
	}
	if err := series.Validate(); err != nil {
		a.metricsRegistry().RecordFetchError(c.Name())
		return nil, err
	}
	return series.Tail(days), nil
}

// ComputeReport runs the indicator engine and records report metrics.
func (a *App) ComputeReport(series core.PriceSeries) indicator.Optional[indicator.Report] {
	start := time.Now()
	rep := indicator.Compute(series)
	elapsed := time.Since(start).Seconds()

	absent := allSections
	if r, ok := rep.Get(); ok {
		absent = r.Absent()
	}
	a.metricsRegistry().RecordReport(absent, len(allSections), elapsed)
	return rep
}

// AnalyzeSeries computes the report for an already-loaded series and runs
// every registered agent on it.
func (a *App) AnalyzeSeries(ctx context.Context, symbol string, series core.PriceSeries) Result {
	start := time.Now()
	res := Result{Symbol: symbol, Report: indicator.None[indicator.Report]()}

	if len(series) > 0 {
		if err := series.Validate(); err != nil {
			res.setErr(err)
			res.Elapsed = time.Since(start)
			return res
		}
		res.Report = a.ComputeReport(series)
	}

	a.runAgents(ctx, &res, series)
	res.Elapsed = time.Since(start)
	return res
}

// AnalyzeTicker fetches history and analyses one ticker. A fetch failure is
// reported on the result; agents still run and take their no-data stance.
func (a *App) AnalyzeTicker(ctx context.Context, symbol string) Result {
	if a.cfg.Analysis.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Analysis.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		a.metricsRegistry().RecordAnalysis(time.Since(start).Seconds())
	}()

	series, err := a.FetchHistory(ctx, symbol, 0)
	if err != nil {
		a.logger.Warn("failed to fetch history",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		res := Result{Symbol: symbol, Report: indicator.None[indicator.Report]()}
		res.setErr(err)
		if ctx.Err() == nil && !errors.Is(err, core.ErrConfigInvalid) {
			a.runAgents(ctx, &res, nil)
		}
		res.Elapsed = time.Since(start)
		return res
	}

	res := a.AnalyzeSeries(ctx, symbol, series)
	a.logger.Info("ticker analyzed",
		zap.String("symbol", symbol),
		zap.Int("bars", len(series)),
		zap.Int("signals", len(res.Signals)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}

// Analyze runs AnalyzeTicker across symbols with at most
// analysis.concurrency tickers in flight. Results keep input order.
func (a *App) Analyze(ctx context.Context, symbols []string) []Result {
	return a.AnalyzeProgress(ctx, symbols, nil)
}

// AnalyzeProgress is Analyze with a callback invoked after each ticker
// finishes. Calls are serialized; done counts up to len(symbols).
func (a *App) AnalyzeProgress(ctx context.Context, symbols []string, progress func(done, total int)) []Result {
	results := make([]Result, len(symbols))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		progress(done, len(symbols))
	}

	workers := a.cfg.Analysis.Concurrency
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}:
			}
		}
		if err := ctx.Err(); err != nil {
			for j := i; j < len(symbols); j++ {
				results[j] = Result{Symbol: symbols[j], Report: indicator.None[indicator.Report]()}
				results[j].setErr(err)
			}
			break
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.AnalyzeTicker(ctx, symbol)
			report()
		}(i, symbol)
	}

	wg.Wait()
	return results
}

func (a *App) runAgents(ctx context.Context, res *Result, series core.PriceSeries) {
	signals, err := a.agents.Analyze(ctx, agent.Input{
		Symbol: res.Symbol,
		Prices: series,
		Report: res.Report,
	})
	if err != nil && res.Err == nil {
		res.setErr(err)
	}

	m := a.metricsRegistry()
	for _, sig := range signals {
		m.RecordSignal(sig.Agent, string(sig.Signal))
	}
	res.Signals = signals
	if c, ok := meta.Arbitrate(signals); ok {
		res.Consensus = &c
	}

	risk := meta.AssessRisk(series, signals)
	res.Risk = &risk

	decision := a.decide(ctx, meta.DecisionRequest{
		Symbol:    res.Symbol,
		Price:     lastClose(series),
		Signals:   signals,
		Consensus: res.Consensus,
		Risk:      risk,
		Portfolio: meta.Portfolio{
			Cash:   a.cfg.Portfolio.Cash,
			Shares: a.cfg.Portfolio.Holding(res.Symbol),
		},
	})
	m.RecordDecision(string(decision.Action), decision.Source)
	res.Decision = &decision
}

func (a *App) decide(ctx context.Context, req meta.DecisionRequest) meta.TradeDecision {
	a.mu.RLock()
	d := a.decider
	a.mu.RUnlock()

	if d != nil && ctx.Err() == nil {
		decision, err := d.Decide(ctx, req)
		if err == nil {
			return decision
		}
		a.logger.Warn("decision failed, using rules",
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
	}
	return meta.Decide(req)
}

func lastClose(series core.PriceSeries) float64 {
	if len(series) == 0 {
		return 0
	}
	return series.Last().Close
}

func (r *Result) setErr(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Stats returns application statistics
func (a *App) Stats() map[string]any {
	return map[string]any{
		"uptime_seconds": int(time.Since(a.started).Seconds()),
		"collector":      a.cfg.Collector.Provider,
		"collectors":     a.collectors.Names(),
		"agents":         a.agents.Names(),
		"decision":       a.cfg.Analysis.Decision,
		"history_days":   a.cfg.Analysis.HistoryDays,
		"concurrency":    a.cfg.Analysis.Concurrency,
	}
}
