package factory

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/chartwise/internal/config"
	"github.com/newthinker/chartwise/internal/llm"
	"github.com/newthinker/chartwise/internal/llm/claude"
	"github.com/newthinker/chartwise/internal/llm/ollama"
	"github.com/newthinker/chartwise/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		var opts []option.RequestOption
		if cfg.Claude.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Claude.BaseURL))
		}
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, opts...)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	case "":
		return nil, fmt.Errorf("no LLM provider configured")
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
