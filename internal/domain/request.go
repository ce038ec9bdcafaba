package domain

import (
	"fmt"
	"time"
)

// SpeakingPayload carries a learner's spoken response after transcription.
// The transcript is produced upstream by an ASR step; this package never
// touches audio.
type SpeakingPayload struct {
	// Transcript is the ASR transcript of the learner's recording.
	Transcript string `json:"transcript" validate:"required,min=1"`

	// Prompt is the task prompt the learner responded to.
	Prompt string `json:"prompt" validate:"required,min=1"`

	// ReferenceText is the expected text for read-aloud and repeat-sentence
	// tasks. Empty for free-speech tasks.
	ReferenceText string `json:"reference_text,omitempty"`

	// AudioDurationSec is the length of the original recording, used by the
	// rubric to judge fluency and pacing.
	AudioDurationSec float64 `json:"audio_duration_sec,omitempty" validate:"min=0"`
}

// WritingPayload carries a learner's written response.
type WritingPayload struct {
	// Text is the learner's essay or summary.
	Text string `json:"text" validate:"required,min=1"`

	// Prompt is the task prompt the learner responded to.
	Prompt string `json:"prompt" validate:"required,min=1"`

	// WordLimit is the task's word limit, if any. Zero means unlimited.
	WordLimit int `json:"word_limit,omitempty" validate:"min=0"`
}

// ReadingPayload carries a learner's answers to a reading task.
type ReadingPayload struct {
	// Passage is the source text of the task.
	Passage string `json:"passage" validate:"required,min=1"`

	// Question is the task question or instruction.
	Question string `json:"question" validate:"required,min=1"`

	// Selections are the learner's chosen answers, in order.
	Selections []string `json:"selections" validate:"required,min=1"`

	// AnswerKey holds the correct answers when the task has a deterministic
	// key. Optional - rubric-only tasks omit it.
	AnswerKey []string `json:"answer_key,omitempty"`
}

// ListeningPayload carries a learner's answers to a listening task. The
// audio itself never reaches scoring; AudioTranscript is the transcript of
// the stimulus recording.
type ListeningPayload struct {
	// AudioTranscript is the transcript of the audio stimulus.
	AudioTranscript string `json:"audio_transcript" validate:"required,min=1"`

	// Question is the task question or instruction.
	Question string `json:"question" validate:"required,min=1"`

	// Response is the learner's answer: free text or joined selections.
	Response string `json:"response" validate:"required,min=1"`

	// AnswerKey holds the correct answers when the task has a deterministic
	// key. Optional.
	AnswerKey []string `json:"answer_key,omitempty"`
}

// ScoringRequest is a normalized request to score a single learner response.
// Exactly one payload variant must be populated and it must match Section.
// The HTTP layer parses and decodes the request; Validate is the single
// pre-flight gate before any provider is attempted.
type ScoringRequest struct {
	// Section selects the skill area and therefore the legal payload shape
	// and the adapter method used to score it.
	Section Section `json:"section" validate:"required"`

	// QuestionType names the PTE task, e.g. "read_aloud", "essay",
	// "reorder_paragraphs". Free-form but required for prompt construction
	// and tracing.
	QuestionType string `json:"question_type" validate:"required,min=1"`

	// Exactly one of the following is non-nil, matching Section.
	Speaking  *SpeakingPayload  `json:"speaking,omitempty"`
	Writing   *WritingPayload   `json:"writing,omitempty"`
	Reading   *ReadingPayload   `json:"reading,omitempty"`
	Listening *ListeningPayload `json:"listening,omitempty"`

	// IncludeRationale asks providers to generate a free-text explanation
	// alongside the score. Omitting it saves tokens and latency; absence of
	// a rationale never breaks the result schema.
	IncludeRationale bool `json:"include_rationale,omitempty"`

	// ProviderPriority optionally overrides the configured provider order.
	// Unknown providers are filtered out; caller order is preserved.
	ProviderPriority []string `json:"provider_priority,omitempty"`

	// TimeoutMs bounds each individual provider attempt, in milliseconds.
	// Zero means use the configured default.
	TimeoutMs int64 `json:"timeout_ms,omitempty" validate:"min=0"`
}

// AttemptTimeout returns the per-attempt budget as a duration. Zero means
// the caller did not override the default.
func (r *ScoringRequest) AttemptTimeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Validate checks structural constraints and section/payload coherence.
// Returns nil if valid, or an error describing the first violation.
func (r *ScoringRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}

	if !r.Section.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, r.Section)
	}

	populated := 0
	for _, p := range []bool{r.Speaking != nil, r.Writing != nil, r.Reading != nil, r.Listening != nil} {
		if p {
			populated++
		}
	}
	if populated == 0 {
		return fmt.Errorf("%w: section %s", ErrMissingPayload, r.Section)
	}
	if populated > 1 {
		return fmt.Errorf("%w: multiple payload variants populated", ErrPayloadSectionMismatch)
	}

	var match bool
	switch r.Section {
	case SectionSpeaking:
		match = r.Speaking != nil
	case SectionWriting:
		match = r.Writing != nil
	case SectionReading:
		match = r.Reading != nil
	case SectionListening:
		match = r.Listening != nil
	}
	if !match {
		return fmt.Errorf("%w: section %s", ErrPayloadSectionMismatch, r.Section)
	}
	return nil
}
