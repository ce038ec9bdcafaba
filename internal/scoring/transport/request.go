// Package transport defines the normalized request/response shapes shared by
// all provider adapters and the composable middleware pipeline every scoring
// call flows through.
package transport

import (
	"net/http"

	"github.com/pteprep/scoring/internal/domain"
)

// OperationType differentiates scoring calls from health probes. Affects
// rate limit accounting, cache key namespacing, and metrics labeling.
type OperationType string

const (
	// OpScore indicates evaluation of a learner response.
	OpScore OperationType = "score"

	// OpHealth indicates a minimal liveness probe.
	OpHealth OperationType = "health"
)

// Request represents a normalized scoring call across all providers.
// Adapters translate it into their provider-specific HTTP shape.
type Request struct {
	// Operation type affects caching, metrics, and rate limiting.
	Operation OperationType `json:"operation"`

	// Provider identifies which backend to use.
	Provider string `json:"provider"` // "openai"|"anthropic"|"google"

	// Model specifies the exact model version to use.
	Model string `json:"model"`

	// Section and QuestionType describe the task being scored. Empty for
	// health probes.
	Section      domain.Section `json:"section,omitempty"`
	QuestionType string         `json:"question_type,omitempty"`

	// SystemPrompt carries the rubric instructions to the model.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// UserPrompt carries the rendered learner response and task context.
	UserPrompt string `json:"user_prompt"`

	// Generation parameters control model behavior. Scoring uses low
	// temperature for consistency.
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// Control fields for resilience and observability.
	IdempotencyKey string `json:"idempotency_key"`
	TraceID        string `json:"trace_id"`
}

// Response represents normalized output from any provider. The Content is
// the model's text, expected (for scoring calls) to contain a JSON score
// object that the scoring layer extracts and validates.
type Response struct {
	// Content is the model's text output.
	Content string `json:"content"`

	// ProviderRequestIDs enables cross-system correlation.
	ProviderRequestIDs []string `json:"provider_request_ids,omitempty"`

	// Usage tracks resource consumption.
	Usage NormalizedUsage `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`

	// RawBody preserves the original response for audit.
	RawBody []byte `json:"raw_body,omitempty"`
}

// NormalizedUsage provides consistent usage metrics across all providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}
