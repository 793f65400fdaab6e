// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Tools    ToolsConfig    `mapstructure:"tools" yaml:"tools"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Audit    AuditConfig    `mapstructure:"audit" yaml:"audit"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProvider identifies a supported text-generation backend.
type LLMProvider string

const (
	ProviderOpenRouter LLMProvider = "openrouter"
)

// LLMConfig defines the connection and retry policy for the LLM backend.
//
// The API key is never read from the config file; it is bound from the
// OPENROUTER_API_KEY environment variable at load time so a missing
// credential is a single validated startup failure rather than a per-call
// surprise.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	APIDelay    time.Duration `mapstructure:"api_delay" yaml:"api_delay"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// ToolsConfig bounds the external analysis and test subprocesses.
type ToolsConfig struct {
	PylintTimeout time.Duration `mapstructure:"pylint_timeout" yaml:"pylint_timeout"`
	PytestTimeout time.Duration `mapstructure:"pytest_timeout" yaml:"pytest_timeout"`
}

// PipelineConfig tunes the self-healing loop.
type PipelineConfig struct {
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
}

// AuditConfig locates the append-only experiment log.
type AuditConfig struct {
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "remedy")
	v.SetDefault("logger.log_file", "remedy.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.model", "google/gemini-2.0-flash-001")
	v.SetDefault("llm.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.api_timeout", 120*time.Second)
	v.SetDefault("llm.api_delay", 2*time.Second)
	v.SetDefault("llm.retry_delay", 30*time.Second)
	v.SetDefault("llm.max_retries", 3)

	// -- Tools --
	v.SetDefault("tools.pylint_timeout", 30*time.Second)
	v.SetDefault("tools.pytest_timeout", 60*time.Second)

	// -- Pipeline --
	v.SetDefault("pipeline.max_iterations", 5)

	// -- Audit --
	v.SetDefault("audit.log_path", "logs/experiment_data.json")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	_ = v.BindEnv("llm.api_key", "OPENROUTER_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required but not set in the environment")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is a required configuration field")
	}
	if c.LLM.MaxRetries <= 0 {
		return fmt.Errorf("llm.max_retries must be a positive integer")
	}
	if c.Pipeline.MaxIterations <= 0 {
		return fmt.Errorf("pipeline.max_iterations must be a positive integer")
	}
	if c.Tools.PylintTimeout <= 0 || c.Tools.PytestTimeout <= 0 {
		return fmt.Errorf("tool timeouts must be positive durations")
	}
	return nil
}
