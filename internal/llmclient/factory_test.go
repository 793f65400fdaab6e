package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/internal/config"
)

// -- Test Cases: Factory Initialization (NewClient) --

func TestNewClientOpenRouter(t *testing.T) {
	client, err := NewClient(fastLLMConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterClient{}, client)
}

func TestNewClientDefaultsToOpenRouter(t *testing.T) {
	cfg := fastLLMConfig()
	cfg.Provider = ""
	client, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterClient{}, client)
}

func TestNewClientUnsupportedProvider(t *testing.T) {
	cfg := fastLLMConfig()
	cfg.Provider = config.LLMProvider("carrier-pigeon")
	_, err := NewClient(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
