// Package errors defines the error taxonomy for the scoring pipeline.
// Exactly two shapes cross the orchestrator boundary: InvalidRequestError
// before any provider is attempted, and ExhaustedError after every candidate
// failed. Everything else is data the dispatcher uses to pick its next step.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorType categorizes provider failures for retry classification.
// Types determine whether an attempt should be retried against the same
// provider before the dispatcher advances to the next candidate.
type ErrorType string

const (
	// ErrorTypeTimeout indicates request timeout or deadline exceeded (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates rate limit exceeded, retry with backoff (retryable).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeNetwork indicates network connectivity issues (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates provider service unavailable (retryable).
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeValidation indicates the provider rejected the request (non-retryable).
	ErrorTypeValidation ErrorType = "validation_failed"

	// ErrorTypeMalformed indicates an unparseable or schema-invalid provider
	// response (non-retryable - the same prompt tends to fail the same way).
	ErrorTypeMalformed ErrorType = "malformed_response"

	// ErrorTypeAuth indicates authentication failed (non-retryable).
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypePermission indicates insufficient permissions (non-retryable).
	ErrorTypePermission ErrorType = "permission_denied"

	// ErrorTypeQuota indicates account quota exceeded (non-retryable).
	ErrorTypeQuota ErrorType = "quota_exceeded"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common scoring pipeline errors for consistent error handling.
var (
	// ErrUnknownProvider indicates an unknown or unconfigured provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrRateLimitExceeded indicates a local or provider rate limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCacheMiss indicates the requested item was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// InvalidRequestError reports a scoring request that failed pre-flight
// validation. Never retried; surfaced immediately with the failing field.
type InvalidRequestError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *InvalidRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// ProviderError captures a structured failure from one scoring backend:
// network errors, non-2xx statuses, and malformed or schema-invalid
// responses. Recovered locally by the dispatcher.
type ProviderError struct {
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitempty"`
	Type       ErrorType `json:"type"`
	RetryAfter int       `json:"retry_after,omitempty"` // Retry-After header value in seconds
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// IsRetryable determines if the provider error warrants another attempt
// against the same backend before falling through to the next candidate.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeProvider:
		return true
	default:
		return false
	}
}

// GetRetryAfter implements the retry middleware's RetryAfterProvider interface.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// TimeoutError reports a provider attempt that exceeded its deadline. The
// dispatcher treats it exactly like a ProviderError: record and advance.
// The abandoned backend call is not cancelled and may still complete in the
// background; its result is discarded.
type TimeoutError struct {
	Provider string        `json:"provider"`
	Duration time.Duration `json:"duration"`
}

func (e *TimeoutError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s timed out after %s", e.Provider, e.Duration)
	}
	return fmt.Sprintf("operation timed out after %s", e.Duration)
}

// Attempt records a single failed provider attempt for the aggregate error.
type Attempt struct {
	Provider string `json:"provider"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}

// ExhaustedError reports that every candidate provider failed. It enumerates
// each attempt so callers can distinguish "all providers down" from "bad
// input the rubric rejects everywhere".
type ExhaustedError struct {
	Attempts []Attempt `json:"attempts"`
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Reason))
	}
	return fmt.Sprintf("all %d providers exhausted [%s]", len(e.Attempts), strings.Join(parts, "; "))
}

// IsRetryableError determines if an error warrants a retry attempt against
// the same provider. Examines error types and HTTP status codes to provide
// consistent retry decisions across the pipeline.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	var toErr *TimeoutError
	if errors.As(err, &toErr) {
		return true
	}

	if errors.Is(err, ErrRateLimitExceeded) {
		return true
	}

	type statusCoder interface {
		StatusCode() int
	}
	if sc, ok := err.(statusCoder); ok {
		code := sc.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code == http.StatusGatewayTimeout ||
			code >= 500
	}

	// Conservative default - avoid retry loops for unknown errors.
	return false
}

// GetRetryAfter extracts retry-after guidance in seconds from rate limit
// errors, or 0 if none is available.
func GetRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.RetryAfter
	}

	return 0
}

// RateLimitError provides rate limit context for backoff calculation,
// covering both local token-bucket rejections and provider 429 responses.
type RateLimitError struct {
	Provider   string `json:"provider"`
	RetryAfter int    `json:"retry_after"` // Seconds to wait before retry
	Limit      int    `json:"limit"`       // Rate limit
	LocalLimit bool   `json:"local_limit"` // Whether this is a local limit
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %d seconds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Provider)
}

// GetRetryAfter implements the retry middleware's RetryAfterProvider interface.
func (e *RateLimitError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}
