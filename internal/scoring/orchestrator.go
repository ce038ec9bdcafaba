package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pteprep/scoring/internal/domain"
	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/timeout"
)

// attemptState tracks one provider attempt through the dispatch loop.
type attemptState string

const (
	stateAttempting attemptState = "attempting"
	stateSucceeded  attemptState = "succeeded"
	stateFailed     attemptState = "failed"
	stateTimedOut   attemptState = "timed_out"
)

// Orchestrator walks candidate providers in priority order until one
// returns a usable score. Attempts are strictly sequential: a request costs
// money per provider call, so the next candidate is tried only after the
// previous one has failed. Health probing is the one concurrent path.
type Orchestrator struct {
	scorers        map[string]Scorer
	priority       []string
	defaultTimeout time.Duration
	logger         *slog.Logger
	metrics        Metrics
}

// NewOrchestrator builds an orchestrator over the given per-provider
// scorers. The configured default priority is filtered down to providers
// that actually have a scorer.
func NewOrchestrator(scorers map[string]Scorer, cfg *configuration.Config, logger *slog.Logger, metrics Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "orchestrator")
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	defaultTimeout := cfg.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = configuration.DefaultAttemptTimeout
	}

	return &Orchestrator{
		scorers:        scorers,
		priority:       filterKnown(cfg.DefaultPriority, scorers),
		defaultTimeout: defaultTimeout,
		logger:         logger,
		metrics:        metrics,
	}
}

// Score validates the request, resolves the candidate provider order, and
// attempts each candidate in turn. The first successful attempt wins and no
// later candidate is contacted. Exactly two error shapes escape:
// InvalidRequestError before any attempt, ExhaustedError after all of them.
func (o *Orchestrator) Score(ctx context.Context, req *domain.ScoringRequest) (*domain.ScoringResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &scorerrors.InvalidRequestError{Message: err.Error()}
	}

	candidates, err := o.resolveCandidates(req.ProviderPriority)
	if err != nil {
		return nil, err
	}

	attemptTimeout := req.AttemptTimeout()
	if attemptTimeout <= 0 {
		attemptTimeout = o.defaultTimeout
	}

	start := time.Now()
	attempts := make([]scorerrors.Attempt, 0, len(candidates))

	for _, provider := range candidates {
		scorer := o.scorers[provider]
		state := stateAttempting
		o.logger.InfoContext(ctx, "attempting provider",
			"provider", provider,
			"section", req.Section,
			"question_type", req.QuestionType,
			"attempt", len(attempts)+1,
			"timeout", attemptTimeout.String(),
		)

		raw, err := timeout.Do(ctx, provider, attemptTimeout, func() {
			o.metrics.IncrementCounter("scoring.attempt.timeouts", map[string]string{"provider": provider}, 1)
		}, func(ctx context.Context) (*domain.RawScore, error) {
			return o.dispatch(ctx, scorer, req)
		})

		if err == nil {
			state = stateSucceeded
			result := &domain.ScoringResult{
				Score: domain.NormalizeRawScore(raw),
				Trace: domain.Trace{
					Section:          req.Section,
					QuestionType:     req.QuestionType,
					Provider:         provider,
					ProviderPriority: candidates,
					DurationMs:       time.Since(start).Milliseconds(),
					Timestamp:        time.Now().UTC(),
				},
			}
			o.logger.InfoContext(ctx, "scoring succeeded",
				"provider", provider,
				"state", state,
				"overall", result.Score.Overall,
				"duration_ms", result.Trace.DurationMs,
				"attempts", len(attempts)+1,
			)
			o.metrics.IncrementCounter("scoring.requests.success", map[string]string{
				"provider": provider,
				"section":  string(req.Section),
			}, 1)
			return result, nil
		}

		// Context cancellation belongs to the caller; stop walking instead
		// of burning the remaining candidates on a request nobody awaits.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		state = stateFailed
		var toErr *scorerrors.TimeoutError
		if errors.As(err, &toErr) {
			state = stateTimedOut
		}

		o.logger.WarnContext(ctx, "provider attempt failed",
			"provider", provider,
			"state", state,
			"error", err.Error(),
		)
		attempts = append(attempts, scorerrors.Attempt{
			Provider: provider,
			Err:      err,
			Reason:   err.Error(),
		})
	}

	o.logger.ErrorContext(ctx, "all providers exhausted",
		"section", req.Section,
		"question_type", req.QuestionType,
		"attempts", len(attempts),
	)
	o.metrics.IncrementCounter("scoring.requests.exhausted", map[string]string{
		"section": string(req.Section),
	}, 1)
	return nil, &scorerrors.ExhaustedError{Attempts: attempts}
}

// Health probes every configured provider concurrently and aggregates the
// results. Unlike scoring, fan-out is safe here: probes are cheap and a
// status page wants fresh data for all backends at once.
func (o *Orchestrator) Health(ctx context.Context) domain.HealthReport {
	statuses := make([]domain.HealthStatus, len(o.priority))

	var wg sync.WaitGroup
	for i, provider := range o.priority {
		wg.Add(1)
		go func(i int, s Scorer) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, o.defaultTimeout)
			defer cancel()
			statuses[i] = s.Health(probeCtx)
		}(i, o.scorers[provider])
	}
	wg.Wait()

	report := domain.NewHealthReport(statuses, time.Now().UTC())
	for _, s := range report.Providers {
		val := 0.0
		if s.OK {
			val = 1.0
		}
		o.metrics.SetGauge("scoring.provider.healthy", map[string]string{"provider": s.Provider}, val)
	}
	return report
}

// Providers returns the resolved default priority order.
func (o *Orchestrator) Providers() []string {
	out := make([]string, len(o.priority))
	copy(out, o.priority)
	return out
}

// resolveCandidates turns an optional request-level priority override into
// the concrete attempt order. Unknown names in the override are dropped
// with caller order preserved; an override that names only unknown
// providers is a caller error, not grounds for silently using the default.
func (o *Orchestrator) resolveCandidates(override []string) ([]string, error) {
	if len(override) > 0 {
		candidates := filterKnown(override, o.scorers)
		if len(candidates) == 0 {
			return nil, &scorerrors.InvalidRequestError{
				Field:   "provider_priority",
				Message: fmt.Sprintf("no known providers in %v", override),
			}
		}
		return candidates, nil
	}

	if len(o.priority) == 0 {
		return nil, &scorerrors.ExhaustedError{}
	}
	return o.priority, nil
}

// dispatch routes the request to the section-specific scorer method.
func (o *Orchestrator) dispatch(ctx context.Context, s Scorer, req *domain.ScoringRequest) (*domain.RawScore, error) {
	switch req.Section {
	case domain.SectionSpeaking:
		return s.ScoreSpeaking(ctx, req)
	case domain.SectionWriting:
		return s.ScoreWriting(ctx, req)
	case domain.SectionReading:
		return s.ScoreReading(ctx, req)
	case domain.SectionListening:
		return s.ScoreListening(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSection, req.Section)
	}
}

// filterKnown keeps only names with a configured scorer, preserving order
// and dropping duplicates.
func filterKnown(names []string, scorers map[string]Scorer) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		if _, ok := scorers[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}
