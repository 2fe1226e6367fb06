package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CHARTWISE_SERVER_PORT.
const EnvPrefix = "CHARTWISE"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Collector CollectorConfig `mapstructure:"collector"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the zap preset and minimum level.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CollectorConfig picks the price-series source.
type CollectorConfig struct {
	Provider string      `mapstructure:"provider"` // "yahoo" or "csv"
	Yahoo    YahooConfig `mapstructure:"yahoo"`
	CSV      CSVConfig   `mapstructure:"csv"`
}

type YahooConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type CSVConfig struct {
	Dir string `mapstructure:"dir"`
}

// AnalysisConfig controls the per-ticker pipeline.
type AnalysisConfig struct {
	HistoryDays int           `mapstructure:"history_days"`
	Concurrency int           `mapstructure:"concurrency"`
	Agents      []string      `mapstructure:"agents"`
	Decision    string        `mapstructure:"decision"` // "rules" or "llm"
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PortfolioConfig is the book trade decisions are sized against.
type PortfolioConfig struct {
	Cash      float64        `mapstructure:"cash"`
	Positions map[string]int `mapstructure:"positions"`
}

// Holding returns the shares held in symbol. Keys match case-insensitively
// because viper lowercases map keys.
func (p PortfolioConfig) Holding(symbol string) int {
	for k, n := range p.Positions {
		if strings.EqualFold(k, symbol) {
			return n
		}
	}
	return 0
}

type LLMConfig struct {
	Provider    string       `mapstructure:"provider"`
	Temperature float64      `mapstructure:"temperature"`
	MaxTokens   int          `mapstructure:"max_tokens"`
	Claude      ClaudeConfig `mapstructure:"claude"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
	Ollama      OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// NotifyConfig holds outbound notification targets for batch jobs.
type NotifyConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig posts a summary when a batch analysis finishes. An empty URL
// disables it.
type WebhookConfig struct {
	URL        string            `mapstructure:"url"`
	Headers    map[string]string `mapstructure:"headers"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
}

// Load reads configuration from file over the defaults. An empty path loads
// defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default key so env overrides apply even when
// the file omits a section.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("collector.provider", d.Collector.Provider)
	v.SetDefault("collector.yahoo.base_url", d.Collector.Yahoo.BaseURL)
	v.SetDefault("collector.yahoo.timeout", d.Collector.Yahoo.Timeout)
	v.SetDefault("collector.yahoo.requests_per_sec", d.Collector.Yahoo.RequestsPerSec)
	v.SetDefault("collector.yahoo.max_retries", d.Collector.Yahoo.MaxRetries)
	v.SetDefault("collector.csv.dir", d.Collector.CSV.Dir)

	v.SetDefault("analysis.history_days", d.Analysis.HistoryDays)
	v.SetDefault("analysis.concurrency", d.Analysis.Concurrency)
	v.SetDefault("analysis.agents", d.Analysis.Agents)
	v.SetDefault("analysis.decision", d.Analysis.Decision)
	v.SetDefault("analysis.timeout", d.Analysis.Timeout)

	v.SetDefault("portfolio.cash", d.Portfolio.Cash)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.claude.api_key", "")
	v.SetDefault("llm.claude.model", "")
	v.SetDefault("llm.claude.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.ollama.endpoint", "")
	v.SetDefault("llm.ollama.model", "")

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("notify.webhook.url", d.Notify.Webhook.URL)
	v.SetDefault("notify.webhook.timeout", d.Notify.Webhook.Timeout)
	v.SetDefault("notify.webhook.max_retries", d.Notify.Webhook.MaxRetries)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Collector: CollectorConfig{
			Provider: "yahoo",
			Yahoo: YahooConfig{
				Timeout:        10 * time.Second,
				RequestsPerSec: 2,
				MaxRetries:     3,
			},
			CSV: CSVConfig{
				Dir: "data",
			},
		},
		Analysis: AnalysisConfig{
			HistoryDays: 180,
			Concurrency: 4,
			Agents:      []string{"rules"},
			Decision:    "rules",
			Timeout:     2 * time.Minute,
		},
		Portfolio: PortfolioConfig{
			Cash: 100000,
		},
		LLM: LLMConfig{
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Notify: NotifyConfig{
			Webhook: WebhookConfig{
				Timeout:    10 * time.Second,
				MaxRetries: 2,
			},
		},
	}
}

var (
	knownCollectors = []string{"yahoo", "csv"}
	knownAgents     = []string{"technicals", "rules"}
	knownProviders  = []string{"claude", "openai", "ollama"}
	knownDecisions  = []string{"rules", "llm"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if !slices.Contains(knownCollectors, c.Collector.Provider) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector.provider must be one of %v, got %q", knownCollectors, c.Collector.Provider))
	}
	switch c.Collector.Provider {
	case "yahoo":
		if c.Collector.Yahoo.RequestsPerSec <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("yahoo requests_per_sec must be positive, got %g", c.Collector.Yahoo.RequestsPerSec))
		}
		if c.Collector.Yahoo.MaxRetries < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("yahoo max_retries cannot be negative, got %d", c.Collector.Yahoo.MaxRetries))
		}
	case "csv":
		if c.Collector.CSV.Dir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("csv dir required when collector is csv"))
		}
	}

	if c.Analysis.HistoryDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("history_days must be positive, got %d", c.Analysis.HistoryDays))
	}
	if c.Analysis.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("concurrency must be at least 1, got %d", c.Analysis.Concurrency))
	}
	if len(c.Analysis.Agents) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("at least one agent required"))
	}
	for _, name := range c.Analysis.Agents {
		if !slices.Contains(knownAgents, name) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown agent %q, expected one of %v", name, knownAgents))
		}
	}
	if slices.Contains(c.Analysis.Agents, "technicals") && c.LLM.Provider == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm.provider required by the technicals agent"))
	}

	if !slices.Contains(knownDecisions, c.Analysis.Decision) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.decision must be one of %v, got %q", knownDecisions, c.Analysis.Decision))
	}
	if c.Analysis.Decision == "llm" && c.LLM.Provider == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm.provider required by llm decisions"))
	}

	if c.Portfolio.Cash < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("portfolio.cash cannot be negative, got %g", c.Portfolio.Cash))
	}
	for symbol, n := range c.Portfolio.Positions {
		if n < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("portfolio position %s cannot be negative, got %d", symbol, n))
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		if !slices.Contains(knownProviders, c.LLM.Provider) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("llm temperature must be between 0 and 2, got %g", c.LLM.Temperature))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics path must start with /, got %q", c.Metrics.Path))
	}

	if hook := c.Notify.Webhook; hook.URL != "" {
		u, err := url.Parse(hook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("notify.webhook.url must be an http(s) URL, got %q", hook.URL))
		}
		if hook.MaxRetries < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("notify.webhook.max_retries cannot be negative, got %d", hook.MaxRetries))
		}
	}

	return nil
}
