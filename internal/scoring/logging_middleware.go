package scoring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

// Metrics provides observability data collection for scoring operations.
// Supports counters, histograms, and gauges with tag-based dimensionality.
type Metrics interface {
	IncrementCounter(name string, tags map[string]string, value float64)
	RecordHistogram(name string, tags map[string]string, value float64)
	SetGauge(name string, tags map[string]string, value float64)
}

// NoOpMetrics satisfies the Metrics interface without collecting anything.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a no-op metrics collector.
func NewNoOpMetrics() *NoOpMetrics { return &NoOpMetrics{} }

func (n *NoOpMetrics) IncrementCounter(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) RecordHistogram(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) SetGauge(_ string, _ map[string]string, _ float64) {}

// LoggingMiddleware provides observability for the provider request
// lifecycle: structured logs, latency and token metrics, and error
// classification. Learner content is redacted by default because prompts
// carry exam responses.
type LoggingMiddleware struct {
	logger         *slog.Logger
	metrics        Metrics
	redactPayloads bool
}

// NewLoggingMiddleware creates observability middleware with structured
// logging and metrics collection.
func NewLoggingMiddleware(cfg configuration.ObservabilityConfig, logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	lm := &LoggingMiddleware{
		logger:         logger,
		metrics:        metrics,
		redactPayloads: cfg.RedactPayloads,
	}
	return lm.Middleware
}

// Middleware wraps a handler with request/response logging and metrics.
func (m *LoggingMiddleware) Middleware(next transport.Handler) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		requestID := req.TraceID
		if requestID == "" {
			requestID = uuid.New().String()
			req.TraceID = requestID
		}

		baseTags := map[string]string{
			"provider":  req.Provider,
			"model":     req.Model,
			"operation": string(req.Operation),
		}

		m.logRequest(ctx, req, requestID)
		m.metrics.IncrementCounter("scoring.provider.requests.total", baseTags, 1)

		start := time.Now()
		resp, err := next.Handle(ctx, req)
		duration := time.Since(start)

		m.metrics.RecordHistogram("scoring.provider.request.duration_ms", baseTags, float64(duration.Milliseconds()))

		if err != nil {
			m.handleError(ctx, req, err, requestID, duration, baseTags)
		} else if resp != nil {
			m.handleSuccess(ctx, req, resp, requestID, duration, baseTags)
		}

		return resp, err
	})
}

func (m *LoggingMiddleware) logRequest(ctx context.Context, req *transport.Request, requestID string) {
	fields := []any{
		"request_id", requestID,
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"max_tokens", req.MaxTokens,
	}

	if req.Operation == transport.OpScore {
		fields = append(fields,
			"section", req.Section,
			"question_type", req.QuestionType,
		)
		if m.redactPayloads {
			fields = append(fields, "user_prompt_length", len(req.UserPrompt))
		} else {
			fields = append(fields, "user_prompt", req.UserPrompt)
		}
	}

	m.logger.InfoContext(ctx, "provider request started", fields...)
}

func (m *LoggingMiddleware) handleError(
	ctx context.Context,
	req *transport.Request,
	err error,
	requestID string,
	duration time.Duration,
	baseTags map[string]string,
) {
	errorTags := copyTags(baseTags)
	errorTags["error_type"] = string(classifyErrorType(err))

	m.metrics.IncrementCounter("scoring.provider.requests.errors", errorTags, 1)

	m.logger.ErrorContext(ctx, "provider request failed",
		"request_id", requestID,
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"duration_ms", duration.Milliseconds(),
		"error_type", errorTags["error_type"],
		"error", err.Error(),
	)
}

func (m *LoggingMiddleware) handleSuccess(
	ctx context.Context,
	req *transport.Request,
	resp *transport.Response,
	requestID string,
	duration time.Duration,
	baseTags map[string]string,
) {
	m.metrics.IncrementCounter("scoring.provider.requests.success", baseTags, 1)
	m.metrics.RecordHistogram("scoring.provider.tokens.prompt", baseTags, float64(resp.Usage.PromptTokens))
	m.metrics.RecordHistogram("scoring.provider.tokens.completion", baseTags, float64(resp.Usage.CompletionTokens))
	m.metrics.RecordHistogram("scoring.provider.tokens.total", baseTags, float64(resp.Usage.TotalTokens))

	fields := []any{
		"request_id", requestID,
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"duration_ms", duration.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
		"provider_request_ids", strings.Join(resp.ProviderRequestIDs, ","),
	}

	if m.redactPayloads {
		fields = append(fields, "response_length", len(resp.Content))
	} else {
		content := resp.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fields = append(fields, "response_preview", content)
	}

	m.logger.InfoContext(ctx, "provider request completed", fields...)
}

// classifyErrorType maps pipeline errors onto the error taxonomy for
// metrics labeling.
func classifyErrorType(err error) scorerrors.ErrorType {
	var provErr *scorerrors.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type
	}
	var toErr *scorerrors.TimeoutError
	if errors.As(err, &toErr) {
		return scorerrors.ErrorTypeTimeout
	}
	var rlErr *scorerrors.RateLimitError
	if errors.As(err, &rlErr) {
		return scorerrors.ErrorTypeRateLimit
	}
	return scorerrors.ErrorTypeUnknown
}

// copyTags copies a metric tag map so per-event tags never leak between
// metric calls.
func copyTags(original map[string]string) map[string]string {
	tagsCopy := make(map[string]string, len(original))
	for k, v := range original {
		tagsCopy[k] = v
	}
	return tagsCopy
}
