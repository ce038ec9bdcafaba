package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		typ  ErrorType
		want bool
	}{
		{name: "timeout", typ: ErrorTypeTimeout, want: true},
		{name: "rate_limit", typ: ErrorTypeRateLimit, want: true},
		{name: "network", typ: ErrorTypeNetwork, want: true},
		{name: "provider_unavailable", typ: ErrorTypeProvider, want: true},
		{name: "auth", typ: ErrorTypeAuth, want: false},
		{name: "validation", typ: ErrorTypeValidation, want: false},
		{name: "malformed", typ: ErrorTypeMalformed, want: false},
		{name: "quota", typ: ErrorTypeQuota, want: false},
		{name: "unknown", typ: ErrorTypeUnknown, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ProviderError{Provider: "openai", Type: tt.typ}
			assert.Equal(t, tt.want, err.IsRetryable())
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{
			name: "wrapped_retryable_provider_error",
			err:  fmt.Errorf("attempt failed: %w", &ProviderError{Provider: "google", Type: ErrorTypeNetwork}),
			want: true,
		},
		{
			name: "timeout_error",
			err:  &TimeoutError{Provider: "openai", Duration: 50 * time.Millisecond},
			want: true,
		},
		{name: "rate_limit_sentinel", err: ErrRateLimitExceeded, want: true},
		{name: "plain_error", err: errors.New("boom"), want: false},
		{
			name: "non_retryable_provider_error",
			err:  &ProviderError{Provider: "anthropic", Type: ErrorTypeAuth},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestExhaustedError_Error(t *testing.T) {
	err := &ExhaustedError{Attempts: []Attempt{
		{Provider: "openai", Reason: "network unreachable"},
		{Provider: "google", Reason: "timed out after 30s"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "all 2 providers exhausted")
	assert.Contains(t, msg, "openai: network unreachable")
	assert.Contains(t, msg, "google: timed out after 30s")
}

func TestGetRetryAfter(t *testing.T) {
	assert.Equal(t, 0, GetRetryAfter(nil))
	assert.Equal(t, 7, GetRetryAfter(&RateLimitError{Provider: "local", RetryAfter: 7}))
	assert.Equal(t, 3, GetRetryAfter(fmt.Errorf("wrapped: %w", &ProviderError{Provider: "openai", RetryAfter: 3})))
	assert.Equal(t, 0, GetRetryAfter(errors.New("boom")))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		want       ErrorType
	}{
		{name: "rate_limit_by_code", statusCode: http.StatusBadRequest, errorCode: "rate_limit_exceeded", want: ErrorTypeRateLimit},
		{name: "timeout_by_code", statusCode: http.StatusOK, errorCode: "request_timeout", want: ErrorTypeTimeout},
		{name: "auth_by_code", statusCode: http.StatusOK, errorCode: "unauthorized_request", want: ErrorTypeAuth},
		{name: "quota_by_code", statusCode: http.StatusOK, errorCode: "quota_exceeded", want: ErrorTypeQuota},
		{name: "429_status", statusCode: http.StatusTooManyRequests, want: ErrorTypeRateLimit},
		{name: "401_status", statusCode: http.StatusUnauthorized, want: ErrorTypeAuth},
		{name: "403_status", statusCode: http.StatusForbidden, want: ErrorTypePermission},
		{name: "400_status", statusCode: http.StatusBadRequest, want: ErrorTypeValidation},
		{name: "503_status", statusCode: http.StatusServiceUnavailable, want: ErrorTypeProvider},
		{name: "504_status", statusCode: http.StatusGatewayTimeout, want: ErrorTypeTimeout},
		{name: "599_status", statusCode: 599, want: ErrorTypeProvider},
		{name: "418_status", statusCode: http.StatusTeapot, want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.statusCode, tt.errorCode))
		})
	}
}
