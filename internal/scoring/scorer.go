package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/pteprep/scoring/internal/domain"
	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

// Generation parameters for scoring calls. Low temperature keeps repeated
// scorings of the same response close together.
const (
	scoringMaxTokens   = 1024
	scoringTemperature = 0.1

	healthMaxTokens = 1
	healthPrompt    = "Reply with the single word: ok"
)

// Scorer is one provider's scoring surface. Each section gets its own
// method because rubrics and payload shapes differ per skill area; Health
// is a cheap liveness probe that never returns an error.
type Scorer interface {
	// Name returns the canonical provider identifier.
	Name() string

	ScoreSpeaking(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error)
	ScoreWriting(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error)
	ScoreReading(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error)
	ScoreListening(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error)

	// Health probes the provider with a minimal completion. Failures are
	// reported in the status, never as an error.
	Health(ctx context.Context) domain.HealthStatus
}

// providerScorer implements Scorer on top of the transport pipeline. One
// instance exists per configured provider; all state is read-only so a
// single instance serves concurrent requests.
type providerScorer struct {
	provider    string
	model       string
	healthModel string
	handler     transport.Handler
}

// NewScorer builds a Scorer for one provider backed by the given handler
// pipeline.
func NewScorer(provider string, cfg configuration.ProviderConfig, handler transport.Handler) Scorer {
	healthModel := cfg.HealthModel
	if healthModel == "" {
		healthModel = cfg.Model
	}
	return &providerScorer{
		provider:    provider,
		model:       cfg.Model,
		healthModel: healthModel,
		handler:     handler,
	}
}

func (s *providerScorer) Name() string { return s.provider }

func (s *providerScorer) ScoreSpeaking(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error) {
	return s.score(ctx, domain.SectionSpeaking, req)
}

func (s *providerScorer) ScoreWriting(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error) {
	return s.score(ctx, domain.SectionWriting, req)
}

func (s *providerScorer) ScoreReading(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error) {
	return s.score(ctx, domain.SectionReading, req)
}

func (s *providerScorer) ScoreListening(ctx context.Context, req *domain.ScoringRequest) (*domain.RawScore, error) {
	return s.score(ctx, domain.SectionListening, req)
}

func (s *providerScorer) score(ctx context.Context, section domain.Section, req *domain.ScoringRequest) (*domain.RawScore, error) {
	if req.Section != section {
		return nil, fmt.Errorf("%w: section %s", domain.ErrPayloadSectionMismatch, req.Section)
	}

	userPrompt, err := BuildUserPrompt(req)
	if err != nil {
		return nil, err
	}

	treq := &transport.Request{
		Operation:    transport.OpScore,
		Provider:     s.provider,
		Model:        s.model,
		Section:      req.Section,
		QuestionType: req.QuestionType,
		SystemPrompt: BuildSystemPrompt(req.Section, req.QuestionType, req.IncludeRationale),
		UserPrompt:   userPrompt,
		MaxTokens:    scoringMaxTokens,
		Temperature:  scoringTemperature,
	}

	key, err := transport.GenerateIdemKey(treq)
	if err != nil {
		return nil, fmt.Errorf("failed to generate idempotency key: %w", err)
	}
	treq.IdempotencyKey = key

	resp, err := s.handler.Handle(ctx, treq)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractRawScore(resp.Content)
	if err != nil {
		return nil, &scorerrors.ProviderError{
			Provider: s.provider,
			Message:  err.Error(),
			Type:     scorerrors.ErrorTypeMalformed,
		}
	}
	return raw, nil
}

// Health issues a one-token completion and reports the outcome. The probe
// intentionally skips extraction; any well-formed completion proves the
// provider is reachable and authenticated.
func (s *providerScorer) Health(ctx context.Context) domain.HealthStatus {
	treq := &transport.Request{
		Operation:   transport.OpHealth,
		Provider:    s.provider,
		Model:       s.healthModel,
		UserPrompt:  healthPrompt,
		MaxTokens:   healthMaxTokens,
		Temperature: 0,
	}

	start := time.Now()
	_, err := s.handler.Handle(ctx, treq)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return domain.HealthStatus{
			Provider:  s.provider,
			OK:        false,
			Model:     s.healthModel,
			LatencyMs: latency,
			Error:     err.Error(),
		}
	}
	return domain.HealthStatus{
		Provider:  s.provider,
		OK:        true,
		Model:     s.healthModel,
		LatencyMs: latency,
	}
}
