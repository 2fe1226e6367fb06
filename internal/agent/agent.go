// Package agent runs analysis agents that turn an indicator report into
// trading signals.
package agent

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"go.uber.org/zap"
)

// Input is everything an agent sees for one ticker.
type Input struct {
	Symbol string
	Prices core.PriceSeries
	Report indicator.Optional[indicator.Report]
}

// Agent produces one signal per ticker.
type Agent interface {
	Name() string
	Analyze(ctx context.Context, in Input) (core.TradingSignal, error)
}

// Engine manages and runs agents in registration order
type Engine struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a new agent engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		agents: make(map[string]Agent),
		logger: l,
		now:    time.Now,
	}
}

// Register adds an agent, replacing one with the same name in place
func (e *Engine) Register(a Agent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.agents[a.Name()]; !exists {
		e.order = append(e.order, a.Name())
	}
	e.agents[a.Name()] = a
}

// Get retrieves an agent by name
func (e *Engine) Get(name string) (Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.agents[name]
	return a, ok
}

// Names returns agent names in registration order
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// GetAll returns all registered agents in registration order
func (e *Engine) GetAll() []Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Agent, 0, len(e.order))
	for _, name := range e.order {
		result = append(result, e.agents[name])
	}
	return result
}

// Analyze runs every registered agent. Failing agents are logged and skipped.
func (e *Engine) Analyze(ctx context.Context, in Input) ([]core.TradingSignal, error) {
	agents := e.GetAll()
	signals := make([]core.TradingSignal, 0, len(agents))

	for _, a := range agents {
		select {
		case <-ctx.Done():
			return signals, ctx.Err()
		default:
		}

		sig, err := a.Analyze(ctx, in)
		if err != nil {
			e.logger.Warn("agent analysis failed",
				zap.String("agent", a.Name()),
				zap.String("symbol", in.Symbol),
				zap.Error(err),
			)
			continue
		}

		sig.Agent = a.Name()
		sig.Symbol = in.Symbol
		if sig.GeneratedAt.IsZero() {
			sig.GeneratedAt = e.now()
		}
		signals = append(signals, sig)
	}

	return signals, nil
}

// NoDataSignal is the low-confidence neutral stance taken when a ticker has
// no usable price history.
func NoDataSignal(symbol string) core.TradingSignal {
	return core.TradingSignal{
		Symbol:     symbol,
		Signal:     core.SignalNeutral,
		Confidence: 0.1,
		Reasoning: fmt.Sprintf("No price data available for %s. Cannot perform technical analysis "+
			"without historical prices. Defaulting to neutral with very low confidence.", symbol),
	}
}

// ClampConfidence bounds a model-reported confidence to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
