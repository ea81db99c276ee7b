package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Config is the fully resolved application configuration.
type Config struct {
	Logging   LoggingConfig
	Dashboard DashboardConfig
	Server    ServerConfig
	Store     StoreConfig
	Data      DataConfig
	Plot      PlotConfig
	LLM       LLMConfig
	Detect    DetectConfig
}

// DataConfig locates the working dataset.
type DataConfig struct {
	Path   string
	Source string
	Rows   int
}

// DetectConfig holds outlier detection settings.
type DetectConfig struct {
	Threshold float64
}

// PlotConfig holds visualizer settings.
type PlotConfig struct {
	Path string
}

// LLMConfig holds inference service settings.
type LLMConfig struct {
	Provider           string
	Endpoint           string
	Model              string
	EmbedModel         string
	APIKey             string
	SummaryTemperature float64
	PlanTemperature    float64
	Timeout            time.Duration
	RetryDelay         time.Duration
	CacheTTL           time.Duration
	MaxRetries         int
	RateLimit          int
}

// StoreConfig holds session store settings.
type StoreConfig struct {
	Path       string
	Collection string
	Embedder   string
}

// ServerConfig holds tool server settings.
type ServerConfig struct {
	Addr string
}

// DashboardConfig holds web dashboard settings.
type DashboardConfig struct {
	Addr       string
	ToolServer string
	StaticDir  string
	Timeout    time.Duration
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.path", "data/generated_data.csv")
	v.SetDefault("data.source", "generated_data.csv")
	v.SetDefault("data.rows", 3000)

	v.SetDefault("detect.threshold", 4.0)

	v.SetDefault("plot.path", "static/plot.png")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.endpoint", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2:1b")
	v.SetDefault("llm.embed_model", "nomic-embed-text")
	v.SetDefault("llm.summary_temperature", 0.1)
	v.SetDefault("llm.plan_temperature", 0.3)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", time.Duration(0))
	v.SetDefault("llm.rate_limit", 0)

	v.SetDefault("store.path", "chroma_db/analysis_logs.db")
	v.SetDefault("store.collection", "analysis_logs")
	v.SetDefault("store.embedder", "hash")

	v.SetDefault("server.addr", "127.0.0.1:8001")

	v.SetDefault("dashboard.addr", "127.0.0.1:8000")
	v.SetDefault("dashboard.tool_server", "http://127.0.0.1:8001")
	v.SetDefault("dashboard.static_dir", "static")
	v.SetDefault("dashboard.timeout", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes every key overridable through ANALYST_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ANALYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v. Defaults must already be registered.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Data: DataConfig{
			Path:   ExpandPath(v.GetString("data.path")),
			Source: v.GetString("data.source"),
			Rows:   v.GetInt("data.rows"),
		},
		Detect: DetectConfig{
			Threshold: v.GetFloat64("detect.threshold"),
		},
		Plot: PlotConfig{
			Path: ExpandPath(v.GetString("plot.path")),
		},
		LLM: LLMConfig{
			Provider:           strings.ToLower(v.GetString("llm.provider")),
			Endpoint:           v.GetString("llm.endpoint"),
			Model:              v.GetString("llm.model"),
			EmbedModel:         v.GetString("llm.embed_model"),
			APIKey:             v.GetString("llm.api_key"),
			SummaryTemperature: v.GetFloat64("llm.summary_temperature"),
			PlanTemperature:    v.GetFloat64("llm.plan_temperature"),
			Timeout:            v.GetDuration("llm.timeout"),
			MaxRetries:         v.GetInt("llm.max_retries"),
			RetryDelay:         v.GetDuration("llm.retry_delay"),
			CacheTTL:           v.GetDuration("llm.cache_ttl"),
			RateLimit:          v.GetInt("llm.rate_limit"),
		},
		Store: StoreConfig{
			Path:       ExpandPath(v.GetString("store.path")),
			Collection: v.GetString("store.collection"),
			Embedder:   strings.ToLower(v.GetString("store.embedder")),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Dashboard: DashboardConfig{
			Addr:       v.GetString("dashboard.addr"),
			ToolServer: v.GetString("dashboard.tool_server"),
			StaticDir:  ExpandPath(v.GetString("dashboard.static_dir")),
			Timeout:    v.GetDuration("dashboard.timeout"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration produced by the registered defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("%w: data.path", common.ErrMissingConfig)
	}
	if c.Data.Rows <= 0 {
		return fmt.Errorf("%w: data.rows must be positive, got %d", common.ErrInvalidConfig, c.Data.Rows)
	}
	if c.Detect.Threshold < 0 {
		return fmt.Errorf("%w: detect.threshold must be non-negative, got %g", common.ErrInvalidConfig, c.Detect.Threshold)
	}
	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: llm.timeout must be positive", common.ErrInvalidConfig)
	}
	switch c.Store.Embedder {
	case "hash", "llm":
	default:
		return fmt.Errorf("%w: unsupported store.embedder %q", common.ErrInvalidConfig, c.Store.Embedder)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path", common.ErrMissingConfig)
	}
	return nil
}
