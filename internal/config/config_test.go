package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/schemacast/internal/llm"
)

// isolate points HOME at an empty directory and clears the variables the
// loader reads, so the developer's own setup cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "SCHEMACAST_API_KEY", "SCHEMACAST_BASE_URL",
		"SCHEMACAST_MODEL", "SCHEMACAST_TWO_STAGE", "SCHEMACAST_TIMEOUT",
		"ZOTERO_API_KEY", "ZOTERO_LIBRARY_ID",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, llm.DefaultModel, cfg.Model)
	assert.Equal(t, llm.DefaultTimeout, cfg.Timeout)
	assert.True(t, cfg.TwoStage)
	assert.Equal(t, llm.DefaultMaxWorkers, cfg.MaxWorkers)
	assert.Empty(t, cfg.APIKey)
}

func TestLoad_Environment(t *testing.T) {
	t.Run("OPENAI_API_KEY", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "sk-openai")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-openai", cfg.APIKey)
	})

	t.Run("SCHEMACAST_API_KEY wins", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		t.Setenv("SCHEMACAST_API_KEY", "sk-schemacast")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-schemacast", cfg.APIKey)
	})

	t.Run("prefixed settings", func(t *testing.T) {
		isolate(t)
		t.Setenv("SCHEMACAST_MODEL", "gpt-4o-mini")
		t.Setenv("SCHEMACAST_TWO_STAGE", "false")
		t.Setenv("SCHEMACAST_TIMEOUT", "45s")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
		assert.False(t, cfg.TwoStage)
		assert.Equal(t, 45*time.Second, cfg.Timeout)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
model: gpt-4.1
timeout: 30s
two_stage: false
max_workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.TwoStage)
	assert.Equal(t, 8, cfg.MaxWorkers)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.APIKey = "sk-test"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing key", func(c *Config) { c.APIKey = "" }, "api_key"},
		{"blank key", func(c *Config) { c.APIKey = "   " }, "api_key"},
		{"empty model", func(c *Config) { c.Model = "" }, "model"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative workers", func(c *Config) { c.MaxWorkers = -1 }, "max_workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			var confErr *ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &confErr))
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestLLMConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = "http://localhost:8080/v1/"

	lc := cfg.LLMConfig()
	assert.Equal(t, "sk-test", lc.APIKey)
	assert.Equal(t, "http://localhost:8080/v1/", lc.BaseURL)
	assert.Equal(t, cfg.Model, lc.Model)
	assert.Equal(t, cfg.TokensPerSecond, lc.TokensPerSecond)
}
