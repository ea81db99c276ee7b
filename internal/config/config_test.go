package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data/generated_data.csv", cfg.Data.Path)
	assert.Equal(t, 3000, cfg.Data.Rows)
	assert.InDelta(t, 4.0, cfg.Detect.Threshold, 1e-12)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2:1b", cfg.LLM.Model)
	assert.InDelta(t, 0.1, cfg.LLM.SummaryTemperature, 1e-12)
	assert.InDelta(t, 0.3, cfg.LLM.PlanTemperature, 1e-12)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.Equal(t, "hash", cfg.Store.Embedder)
	assert.Equal(t, "127.0.0.1:8001", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:8001", cfg.Dashboard.ToolServer)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("data.rows", 100)
	v.Set("llm.provider", "OpenAI")
	v.Set("llm.api_key", "sk-test")
	v.Set("detect.threshold", 3.5)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Data.Rows)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.InDelta(t, 3.5, cfg.Detect.Threshold, 1e-12)
}

func TestLoadKeepsZeroThresholdAndTemperatures(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("detect.threshold", 0)
	v.Set("llm.summary_temperature", 0)
	v.Set("llm.plan_temperature", 0)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Zero(t, cfg.Detect.Threshold)
	assert.Zero(t, cfg.LLM.SummaryTemperature)
	assert.Zero(t, cfg.LLM.PlanTemperature)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ANALYST_DATA_ROWS", "42")
	t.Setenv("ANALYST_STORE_EMBEDDER", "llm")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Data.Rows)
	assert.Equal(t, "llm", cfg.Store.Embedder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing data path", mutate: func(c *Config) { c.Data.Path = "" }, wantErr: common.ErrMissingConfig},
		{name: "zero rows", mutate: func(c *Config) { c.Data.Rows = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "negative threshold", mutate: func(c *Config) { c.Detect.Threshold = -1 }, wantErr: common.ErrInvalidConfig},
		{name: "bad provider", mutate: func(c *Config) { c.LLM.Provider = "mystery" }, wantErr: common.ErrInvalidConfig},
		{name: "bad embedder", mutate: func(c *Config) { c.Store.Embedder = "onnx" }, wantErr: common.ErrInvalidConfig},
		{name: "zero timeout", mutate: func(c *Config) { c.LLM.Timeout = 0 }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("ANALYST_TEST_DIR", "/tmp/analyst")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/tmp/analyst/data.csv", ExpandPath("$ANALYST_TEST_DIR/data.csv"))

	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandPath("~/x.db"))
	assert.Equal(t, home, ExpandPath("~"))
}
