// internal/llmclient/openrouter.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/config"
)

// OpenRouterClient implements the schemas.LLMClient interface against the
// OpenRouter chat completions API.
//
// Every attempt is paced through a rate limiter so consecutive calls are
// spaced by the configured API delay, and failures are classified before
// the retry decision: HTTP 429 waits out the long retry delay, a timed out
// call retries immediately, and everything else fails the call outright.
type OpenRouterClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	config     config.LLMConfig
}

// -- OpenRouter API Request/Response Structures (Internal to this file) --

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponsePayload struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenRouterClient initializes the client.
func NewOpenRouterClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://openrouter.ai/api/v1/chat/completions"
	}

	// Drain the limiter's initial token so the pre-call delay applies to
	// the first attempt as well, not just the gaps between attempts.
	limiter := rate.NewLimiter(rate.Every(cfg.APIDelay), 1)
	limiter.Allow()

	return &OpenRouterClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		config:   cfg,
		limiter:  limiter,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.openrouter"),
	}, nil
}

// Generate sends the prompts to the API and returns the generated content.
//
// Attempts are numbered from zero. A 429 response is only retried while a
// later attempt remains after the long retry delay; a timeout consumes an
// attempt and retries immediately. Any other failure is terminal on the
// spot. The returned error on exhaustion is always an *APIError.
func (c *OpenRouterClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	body, err := json.Marshal(c.buildRequestPayload(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("cancelled while pacing API call: %w", err)
		}

		content, err := c.doRequest(ctx, body)
		if err == nil {
			return content, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return "", err
		}

		switch apiErr.Kind {
		case KindRateLimited:
			if attempt >= c.config.MaxRetries-1 {
				return "", apiErr
			}
			c.logger.Warn("Rate limited by API, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("retry_delay", c.config.RetryDelay),
			)
			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				return "", fmt.Errorf("cancelled during rate limit backoff: %w", ctx.Err())
			}
		case KindTimeout:
			if attempt >= c.config.MaxRetries-1 {
				return "", apiErr
			}
			c.logger.Warn("API call timed out, retrying immediately",
				zap.Int("attempt", attempt+1),
			)
		default:
			return "", apiErr
		}
	}

	// The loop always returns from its final attempt.
	return "", fatalError(0, "retry loop exited without a result")
}

// doRequest performs a single HTTP exchange and classifies its failure mode.
func (c *OpenRouterClient) doRequest(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fatalError(0, fmt.Sprintf("failed to create HTTP request: %v", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		if isTimeout(err) {
			return "", timeoutError(err)
		}
		return "", fatalError(0, fmt.Sprintf("failed to execute HTTP request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fatalError(resp.StatusCode, fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleAPIError(resp.StatusCode, respBody)
	}

	var payload chatResponsePayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fatalError(resp.StatusCode, fmt.Sprintf("failed to decode response payload: %v", err))
	}

	if payload.Error != nil {
		return "", fatalError(resp.StatusCode, fmt.Sprintf("API returned error: %s", payload.Error.Message))
	}
	if len(payload.Choices) == 0 {
		return "", fatalError(resp.StatusCode, "API returned no choices")
	}

	c.logger.Info("LLM generation complete",
		zap.Duration("duration", duration),
		zap.String("model", c.config.Model),
		zap.Int("prompt_tokens", payload.Usage.PromptTokens),
		zap.Int("completion_tokens", payload.Usage.CompletionTokens),
		zap.Int("total_tokens", payload.Usage.TotalTokens),
	)

	return payload.Choices[0].Message.Content, nil
}

func (c *OpenRouterClient) buildRequestPayload(req schemas.GenerationRequest) chatRequestPayload {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	return chatRequestPayload{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func (c *OpenRouterClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("API returned error status",
		zap.Int("status", statusCode),
		zap.String("response", string(body)),
	)

	if statusCode == http.StatusTooManyRequests {
		return rateLimitError(statusCode)
	}
	return fatalError(statusCode, fmt.Sprintf("API error: status %d, body: %s", statusCode, string(body)))
}

// isTimeout reports whether err represents an exceeded per-call deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
