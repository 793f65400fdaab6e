// internal/llmclient/errors.go
package llmclient

import "fmt"

// ErrorKind classifies a terminal API failure by its cause.
type ErrorKind int

const (
	// KindFatal covers authentication failures, malformed requests, and any
	// other condition that retrying cannot cure.
	KindFatal ErrorKind = iota
	// KindRateLimited means the provider returned HTTP 429 on every allowed
	// attempt.
	KindRateLimited
	// KindTimeout means every allowed attempt exceeded the per-call deadline.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "fatal"
	}
}

// APIError is the terminal failure returned by a client once its retry
// budget is spent or the failure is unretryable. The message is prefixed
// with "ERROR:" so it can be stored verbatim in audit records and prompt
// histories without extra formatting.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ERROR: %s", e.Message)
}

func rateLimitError(status int) *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Status:  status,
		Message: fmt.Sprintf("API rate limit exceeded (status %d), retries exhausted", status),
	}
}

func timeoutError(cause error) *APIError {
	return &APIError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("API call timed out after all retries: %v", cause),
	}
}

func fatalError(status int, detail string) *APIError {
	return &APIError{
		Kind:    KindFatal,
		Status:  status,
		Message: detail,
	}
}
