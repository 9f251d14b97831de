package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Epistemic-Technology/schemacast/internal/llm"
)

// Config is the resolved runtime configuration. The credential is carried
// here and handed to the completion client explicitly.
type Config struct {
	APIKey          string        `mapstructure:"api_key" yaml:"-"`
	BaseURL         string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model           string        `mapstructure:"model" yaml:"model"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	TwoStage        bool          `mapstructure:"two_stage" yaml:"two_stage"`
	TokensPerSecond int           `mapstructure:"tokens_per_second" yaml:"tokens_per_second"`
	BurstTokens     int           `mapstructure:"burst_tokens" yaml:"burst_tokens"`
	MaxWorkers      int           `mapstructure:"max_workers" yaml:"max_workers"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`

	ZoteroAPIKey    string `mapstructure:"zotero_api_key" yaml:"-"`
	ZoteroLibraryID string `mapstructure:"zotero_library_id" yaml:"zotero_library_id,omitempty"`
}

// ConfigurationError reports a configuration that cannot start a pipeline.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Model:           llm.DefaultModel,
		Timeout:         llm.DefaultTimeout,
		TwoStage:        true,
		TokensPerSecond: llm.DefaultTokensPerSecond,
		BurstTokens:     llm.DefaultBurstTokens,
		MaxWorkers:      llm.DefaultMaxWorkers,
		LogLevel:        "info",
	}
}

// New builds a viper instance with defaults, environment bindings and, when
// present, a config file. cfgFile overrides the search path; a missing
// config.yaml in the search path is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("model", defaults.Model)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("two_stage", defaults.TwoStage)
	v.SetDefault("tokens_per_second", defaults.TokensPerSecond)
	v.SetDefault("burst_tokens", defaults.BurstTokens)
	v.SetDefault("max_workers", defaults.MaxWorkers)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("base_url", "")

	// Environment variables with SCHEMACAST_ prefix
	v.SetEnvPrefix("SCHEMACAST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The conventional provider variables are honoured too.
	if err := v.BindEnv("api_key", "SCHEMACAST_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("base_url", "SCHEMACAST_BASE_URL", "OPENAI_BASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("zotero_api_key", "SCHEMACAST_ZOTERO_API_KEY", "ZOTERO_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("zotero_library_id", "SCHEMACAST_ZOTERO_LIBRARY_ID", "ZOTERO_LIBRARY_ID"); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.schemacast")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

// FromViper decodes the current viper state.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Load is New followed by FromViper.
func Load(cfgFile string) (*Config, error) {
	v, err := New(cfgFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate reports the first setting that would prevent a run.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.APIKey) == "":
		return &ConfigurationError{Field: "api_key", Message: "no API key set; export OPENAI_API_KEY or SCHEMACAST_API_KEY"}
	case c.Model == "":
		return &ConfigurationError{Field: "model", Message: "model must not be empty"}
	case c.Timeout <= 0:
		return &ConfigurationError{Field: "timeout", Message: "timeout must be positive"}
	case c.TokensPerSecond < 0:
		return &ConfigurationError{Field: "tokens_per_second", Message: "must not be negative"}
	case c.MaxWorkers < 0:
		return &ConfigurationError{Field: "max_workers", Message: "must not be negative"}
	}
	return nil
}

// LLMConfig returns the client settings derived from c.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		Model:           c.Model,
		Timeout:         c.Timeout,
		TokensPerSecond: c.TokensPerSecond,
		BurstTokens:     c.BurstTokens,
	}
}
