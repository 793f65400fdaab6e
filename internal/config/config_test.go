// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
	assert.Equal(t, 2*time.Second, cfg.LLM.APIDelay)
	assert.Equal(t, 30*time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 120*time.Second, cfg.LLM.APITimeout)
	assert.Equal(t, 30*time.Second, cfg.Tools.PylintTimeout)
	assert.Equal(t, 60*time.Second, cfg.Tools.PytestTimeout)
	assert.Equal(t, 5, cfg.Pipeline.MaxIterations)
	assert.Equal(t, "logs/experiment_data.json", cfg.Audit.LogPath)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.LLM.APIKey = "sk-or-test-key"
		return cfg
	}

	t.Run("Valid Config", func(t *testing.T) {
		err := valid().Validate()
		assert.NoError(t, err, "A valid config should not produce a validation error")
	})

	t.Run("Missing API Key", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.APIKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")
	})

	t.Run("Missing Model", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Model = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.model")
	})

	t.Run("Invalid Max Retries", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.MaxRetries = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.max_retries must be a positive integer")
	})

	t.Run("Invalid Max Iterations", func(t *testing.T) {
		cfg := valid()
		cfg.Pipeline.MaxIterations = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline.max_iterations must be a positive integer")
	})

	t.Run("Invalid Tool Timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.Tools.PytestTimeout = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tool timeouts must be positive durations")
	})
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-from-env")

	yaml := []byte(`
llm:
  model: "deepseek/deepseek-chat"
  max_retries: 4
pipeline:
  max_iterations: 2
tools:
  pylint_timeout: 15s
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	// File values override defaults.
	assert.Equal(t, "deepseek/deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, 2, cfg.Pipeline.MaxIterations)
	assert.Equal(t, 15*time.Second, cfg.Tools.PylintTimeout)

	// Untouched values keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.LLM.APIDelay)

	// The key comes from the environment, never the file.
	assert.Equal(t, "sk-or-from-env", cfg.LLM.APIKey)
}

func TestNewConfigFromViperMissingKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	v := viper.New()
	SetDefaults(v)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
