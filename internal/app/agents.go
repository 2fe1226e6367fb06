package app

import (
	"fmt"

	"github.com/newthinker/chartwise/internal/agent"
	"github.com/newthinker/chartwise/internal/agent/rules"
	"github.com/newthinker/chartwise/internal/agent/technicals"
	"github.com/newthinker/chartwise/internal/config"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/llm"
	"go.uber.org/zap"
)

// BuildAgents instantiates the agents named in analysis.agents. The provider
// may be nil when no configured agent needs a model.
func BuildAgents(cfg *config.Config, provider llm.Provider, logger *zap.Logger) ([]agent.Agent, error) {
	agents := make([]agent.Agent, 0, len(cfg.Analysis.Agents))

	for _, name := range cfg.Analysis.Agents {
		switch name {
		case rules.Name:
			agents = append(agents, rules.New())
		case technicals.Name:
			if provider == nil {
				return nil, core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("agent %s requires an llm provider", name))
			}
			agents = append(agents, technicals.New(provider,
				technicals.WithMaxTokens(cfg.LLM.MaxTokens),
				technicals.WithTemperature(cfg.LLM.Temperature),
				technicals.WithLogger(logger),
			))
		default:
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown agent: %s", name))
		}
	}

	return agents, nil
}
