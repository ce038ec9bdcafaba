package providers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

func TestNewOpenAIAdapter(t *testing.T) {
	tests := []struct {
		name             string
		config           configuration.ProviderConfig
		expectedEndpoint string
	}{
		{
			name: "default_endpoint_when_empty",
			config: configuration.ProviderConfig{
				APIKey: "test-key",
			},
			expectedEndpoint: "https://api.openai.com/v1",
		},
		{
			name: "custom_endpoint_preserved",
			config: configuration.ProviderConfig{
				APIKey:   "test-key",
				Endpoint: "https://custom.openai.com/v1",
			},
			expectedEndpoint: "https://custom.openai.com/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewOpenAIAdapter(tt.config)
			assert.Equal(t, ProviderOpenAI, adapter.Name())
			assert.Equal(t, tt.expectedEndpoint, adapter.config.Endpoint)
		})
	}
}

func TestOpenAIAdapter_Build(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{
		APIKey:   "test-key",
		Endpoint: "https://api.openai.com/v1",
		Headers: map[string]string{
			"X-Custom-Header": "custom-value",
		},
	})

	tests := []struct {
		name        string
		request     *transport.Request
		validateReq func(t *testing.T, httpReq *http.Request)
	}{
		{
			name: "scoring_request",
			request: &transport.Request{
				Operation:      transport.OpScore,
				Provider:       "openai",
				Model:          "gpt-4o-mini",
				SystemPrompt:   "You are a writing examiner.",
				UserPrompt:     "Score this essay.",
				MaxTokens:      512,
				Temperature:    0.1,
				IdempotencyKey: "idem-123",
			},
			validateReq: func(t *testing.T, httpReq *http.Request) {
				assert.Equal(t, "POST", httpReq.Method)
				assert.Equal(t, "https://api.openai.com/v1/chat/completions", httpReq.URL.String())
				assert.Equal(t, "application/json", httpReq.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", httpReq.Header.Get("Authorization"))
				assert.Equal(t, "idem-123", httpReq.Header.Get("Idempotency-Key"))
				assert.Equal(t, "custom-value", httpReq.Header.Get("X-Custom-Header"))

				body, err := io.ReadAll(httpReq.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), `"role":"system"`)
				assert.Contains(t, string(body), "writing examiner")
			},
		},
		{
			name: "health_probe_without_system_prompt",
			request: &transport.Request{
				Operation:   transport.OpHealth,
				Provider:    "openai",
				Model:       "gpt-4o-mini",
				UserPrompt:  "ping",
				MaxTokens:   1,
				Temperature: 0,
			},
			validateReq: func(t *testing.T, httpReq *http.Request) {
				body, err := io.ReadAll(httpReq.Body)
				require.NoError(t, err)
				assert.NotContains(t, string(body), `"role":"system"`)
				assert.Empty(t, httpReq.Header.Get("Idempotency-Key"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpReq, err := adapter.Build(context.Background(), tt.request)
			require.NoError(t, err)
			require.NotNil(t, httpReq)
			tt.validateReq(t, httpReq)
		})
	}
}

func TestOpenAIAdapter_Parse(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{})

	tests := []struct {
		name         string
		statusCode   int
		responseBody string
		headers      map[string]string
		wantErr      bool
		validate     func(t *testing.T, resp *transport.Response, err error)
	}{
		{
			name:       "successful_response",
			statusCode: http.StatusOK,
			responseBody: `{
				"id": "chatcmpl-test123",
				"model": "gpt-4o-mini",
				"choices": [{
					"index": 0,
					"message": {"role": "assistant", "content": "{\"overall\": 72}"},
					"finish_reason": "stop"
				}],
				"usage": {"prompt_tokens": 120, "completion_tokens": 18, "total_tokens": 138}
			}`,
			headers: map[string]string{"x-request-id": "req-abc"},
			validate: func(t *testing.T, resp *transport.Response, _ error) {
				assert.Equal(t, `{"overall": 72}`, resp.Content)
				assert.Equal(t, []string{"req-abc"}, resp.ProviderRequestIDs)
				assert.Equal(t, int64(120), resp.Usage.PromptTokens)
				assert.Equal(t, int64(138), resp.Usage.TotalTokens)
			},
		},
		{
			name:         "rate_limit_error",
			statusCode:   http.StatusTooManyRequests,
			responseBody: `{"error": {"message": "Rate limit exceeded", "type": "rate_limit_exceeded", "code": "rate_limit"}}`,
			wantErr:      true,
			validate: func(t *testing.T, _ *transport.Response, err error) {
				var provErr *scorerrors.ProviderError
				require.ErrorAs(t, err, &provErr)
				assert.Equal(t, ProviderOpenAI, provErr.Provider)
				assert.Equal(t, scorerrors.ErrorTypeRateLimit, provErr.Type)
				assert.True(t, provErr.IsRetryable())
			},
		},
		{
			name:         "authentication_error",
			statusCode:   http.StatusUnauthorized,
			responseBody: `{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`,
			wantErr:      true,
			validate: func(t *testing.T, _ *transport.Response, err error) {
				var provErr *scorerrors.ProviderError
				require.ErrorAs(t, err, &provErr)
				assert.Equal(t, scorerrors.ErrorTypeAuth, provErr.Type)
				assert.False(t, provErr.IsRetryable())
			},
		},
		{
			name:         "malformed_success_body",
			statusCode:   http.StatusOK,
			responseBody: `{"choices": [`,
			wantErr:      true,
			validate: func(t *testing.T, _ *transport.Response, err error) {
				var provErr *scorerrors.ProviderError
				require.ErrorAs(t, err, &provErr)
				assert.Equal(t, scorerrors.ErrorTypeMalformed, provErr.Type)
			},
		},
		{
			name:         "non_json_error_body",
			statusCode:   http.StatusBadGateway,
			responseBody: `upstream timeout`,
			wantErr:      true,
			validate: func(t *testing.T, _ *transport.Response, err error) {
				var provErr *scorerrors.ProviderError
				require.ErrorAs(t, err, &provErr)
				assert.Equal(t, "upstream timeout", provErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpResp := &http.Response{
				StatusCode: tt.statusCode,
				Body:       io.NopCloser(strings.NewReader(tt.responseBody)),
				Header:     make(http.Header),
			}
			for k, v := range tt.headers {
				httpResp.Header.Set(k, v)
			}

			resp, err := adapter.Parse(httpResp)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
			}
			if tt.validate != nil {
				tt.validate(t, resp, err)
			}
		})
	}
}

func TestOpenAIAdapter_Parse_EmptyChoices(t *testing.T) {
	adapter := NewOpenAIAdapter(configuration.ProviderConfig{})

	httpResp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"choices": [], "usage": {}}`)),
		Header:     make(http.Header),
	}

	resp, err := adapter.Parse(httpResp)
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
}
