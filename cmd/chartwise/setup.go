package main

import (
	"fmt"

	"github.com/newthinker/chartwise/internal/app"
	"github.com/newthinker/chartwise/internal/collector/csvfile"
	"github.com/newthinker/chartwise/internal/collector/yahoo"
	"github.com/newthinker/chartwise/internal/config"
	"github.com/newthinker/chartwise/internal/llm"
	"github.com/newthinker/chartwise/internal/llm/factory"
	"github.com/newthinker/chartwise/internal/logger"
	"github.com/newthinker/chartwise/internal/meta"
	"github.com/newthinker/chartwise/internal/metrics"
	"go.uber.org/zap"
)

// loadConfig reads --config (or defaults plus env) and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	return logger.Must(debug || cfg.Log.Development, level)
}

// buildApp wires collectors, the optional LLM provider, the configured
// agents and the decision stage into an App.
func buildApp(cfg *config.Config, log *zap.Logger) (*app.App, *metrics.Registry, error) {
	a := app.New(cfg, log)

	a.RegisterCollector(yahoo.New(yahoo.Options{
		BaseURL:        cfg.Collector.Yahoo.BaseURL,
		Timeout:        cfg.Collector.Yahoo.Timeout,
		RequestsPerSec: cfg.Collector.Yahoo.RequestsPerSec,
		MaxRetries:     cfg.Collector.Yahoo.MaxRetries,
	}))
	a.RegisterCollector(csvfile.New(cfg.Collector.CSV.Dir))

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("creating llm provider: %w", err)
		}
		provider = p
	}

	agents, err := app.BuildAgents(cfg, provider, log)
	if err != nil {
		return nil, nil, err
	}
	for _, ag := range agents {
		a.RegisterAgent(ag)
	}

	if cfg.Analysis.Decision == "llm" && provider != nil {
		a.SetDecider(meta.NewSynthesizer(provider, log, meta.SynthesizerConfig{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}))
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		a.SetMetrics(reg)
	}

	return a, reg, nil
}
