// internal/llmclient/openrouter_test.go
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/config"
)

// -- Test Setup Helpers --

func fastLLMConfig() config.LLMConfig {
	// Production-shaped policy with millisecond delays so tests stay quick.
	return config.LLMConfig{
		Provider:    config.ProviderOpenRouter,
		Model:       "google/gemini-2.0-flash-001",
		APIKey:      "sk-or-test",
		Temperature: 0.3,
		MaxTokens:   4096,
		APITimeout:  500 * time.Millisecond,
		APIDelay:    time.Millisecond,
		RetryDelay:  5 * time.Millisecond,
		MaxRetries:  3,
	}
}

// setupClient rigs up an OpenRouterClient pointed at a mock HTTP server.
func setupClient(t *testing.T, handler http.HandlerFunc) (*OpenRouterClient, *observer.ObservedLogs) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	loggerCore, observedLogs := observer.New(zap.InfoLevel)
	cfg := fastLLMConfig()
	cfg.Endpoint = server.URL

	client, err := NewOpenRouterClient(cfg, zap.New(loggerCore))
	require.NoError(t, err, "NewOpenRouterClient initialization failed")
	return client, observedLogs
}

// -- Test Cases --

func TestGenerateSuccess(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload chatRequestPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "google/gemini-2.0-flash-001", payload.Model)

		successHandlerBody(t, w, "def add(a, b):\n    return a + b")
	})

	content, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You are a code auditor.",
		UserPrompt:   "Fix this file.",
	})
	require.NoError(t, err)
	assert.Equal(t, "def add(a, b):\n    return a + b", content)
}

func TestGenerateSendsSystemAndUserMessages(t *testing.T) {
	var captured chatRequestPayload
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		successHandlerBody(t, w, "ok")
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "system text",
		UserPrompt:   "user text",
	})
	require.NoError(t, err)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "system text", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "user text", captured.Messages[1].Content)
}

func TestGenerateRateLimitRecovery(t *testing.T) {
	var calls atomic.Int32
	client, logs := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		successHandlerBody(t, w, "recovered")
	})

	content, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, int32(2), calls.Load(), "should succeed on the second attempt")
	assert.Equal(t, 1, logs.FilterMessage("Rate limited by API, backing off").Len())
}

func TestGenerateRateLimitExhaustion(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindRateLimited, apiErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Contains(t, err.Error(), "ERROR:")
	assert.Equal(t, int32(3), calls.Load(), "every retry slot should be used")
}

func TestGenerateTimeoutRetriesImmediately(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Stall past the client's per-call timeout.
			time.Sleep(time.Second)
			return
		}
		successHandlerBody(t, w, "eventually")
	})

	start := time.Now()
	content, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "eventually", content)
	assert.Equal(t, int32(3), calls.Load())
	// Two timeouts at 500ms each plus one success; the long rate limit
	// backoff must not have been applied between timeout attempts.
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestGenerateTimeoutExhaustion(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(time.Second)
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTimeout, apiErr.Kind)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateFatalStatusDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindFatal, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load(), "a fatal status must fail on the first attempt")
}

func TestGenerateEmptyChoicesIsFatal(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindFatal, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "no choices")
}

func TestGenerateContextCancellation(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, schemas.GenerationRequest{UserPrompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGeneratePacesConsecutiveCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		successHandlerBody(t, w, "ok")
	}))
	t.Cleanup(server.Close)

	cfg := fastLLMConfig()
	cfg.Endpoint = server.URL
	cfg.APIDelay = 50 * time.Millisecond

	client, err := NewOpenRouterClient(cfg, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "hi"})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"each call should wait out the configured pre-call delay")
}

func TestNewOpenRouterClientRequiresKey(t *testing.T) {
	cfg := fastLLMConfig()
	cfg.APIKey = ""
	_, err := NewOpenRouterClient(cfg, zap.NewNop())
	require.Error(t, err)
}

// successHandlerBody writes a minimal successful completion response.
func successHandlerBody(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}
