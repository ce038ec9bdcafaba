package domain

import (
	"math"
	"time"
)

// MaxScore is the top of the canonical PTE scale. Every number that leaves
// this package is clamped into [0, MaxScore].
const MaxScore = 90

// MaxRationaleLength bounds rationale text carried on a normalized score.
// Provider rationales are LLM output and occasionally run away; anything
// longer is truncated, not rejected.
const MaxRationaleLength = 8 << 10 // 8 KiB

// RawScore is a provider adapter's direct output before normalization.
// No invariant holds on its scale - values may be negative, exceed 90, or
// be NaN when a provider ignores the rubric prompt.
type RawScore struct {
	// Overall is the provider's headline score on its own scale.
	Overall float64 `json:"overall"`

	// Subscores maps rubric trait names (grammar, fluency, ...) to values
	// on the provider's scale.
	Subscores map[string]float64 `json:"subscores,omitempty"`

	// Rationale is the provider's free-text explanation, when requested.
	Rationale string `json:"rationale,omitempty"`

	// Raw preserves provider-specific metadata for tracing and audit.
	Raw map[string]any `json:"raw,omitempty"`
}

// NormalizedScore is the canonical scoring output. Every numeric field is
// clamped into [0, 90]; none is NaN or negative.
type NormalizedScore struct {
	Overall   float64            `json:"overall" validate:"min=0,max=90"`
	Subscores map[string]float64 `json:"subscores"`
	Rationale string             `json:"rationale,omitempty"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
}

// ClampTo90 coerces x into [0, MaxScore]. Non-finite input (NaN, ±Inf)
// degrades to 0 - failing safe to a low score beats propagating corrupt
// provider output. This is the single primitive used everywhere a
// provider-reported number must be trusted.
func ClampTo90(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > MaxScore {
		return MaxScore
	}
	return x
}

// NormalizeRawScore converts a RawScore into a NormalizedScore by clamping
// the overall value and every subscore, truncating the rationale, and
// carrying provider metadata through. It never fails: a nil raw score
// normalizes to an all-zero result rather than erroring the whole request.
func NormalizeRawScore(raw *RawScore) NormalizedScore {
	if raw == nil {
		return NormalizedScore{Subscores: map[string]float64{}}
	}

	subs := make(map[string]float64, len(raw.Subscores))
	for name, v := range raw.Subscores {
		subs[name] = ClampTo90(v)
	}

	rationale := raw.Rationale
	if len(rationale) > MaxRationaleLength {
		rationale = rationale[:MaxRationaleLength]
	}

	return NormalizedScore{
		Overall:   ClampTo90(raw.Overall),
		Subscores: subs,
		Rationale: rationale,
		Metadata:  raw.Raw,
	}
}

// Trace records how a scoring result was produced: which provider won, the
// priority order that was walked, and timing for SLA monitoring.
type Trace struct {
	Section          Section   `json:"section"`
	QuestionType     string    `json:"question_type"`
	Provider         string    `json:"provider"`
	ProviderPriority []string  `json:"provider_priority,omitempty"`
	DurationMs       int64     `json:"duration_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// ScoringResult pairs the canonical score with its trace. This is the only
// success shape that crosses the orchestrator boundary.
type ScoringResult struct {
	Score NormalizedScore `json:"result"`
	Trace Trace           `json:"trace"`
}
