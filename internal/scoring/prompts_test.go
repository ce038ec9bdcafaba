package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pteprep/scoring/internal/domain"
)

func TestBuildSystemPrompt(t *testing.T) {
	withRationale := BuildSystemPrompt(domain.SectionWriting, "essay", true)
	assert.Contains(t, withRationale, "0 to 90")
	assert.Contains(t, withRationale, "rationale")
	assert.Contains(t, withRationale, "grammar")
	assert.Contains(t, withRationale, "Task type: essay")

	withoutRationale := BuildSystemPrompt(domain.SectionWriting, "essay", false)
	assert.NotContains(t, withoutRationale, "rationale")
}

func TestBuildUserPrompt(t *testing.T) {
	tests := []struct {
		name     string
		request  *domain.ScoringRequest
		wantErr  error
		contains []string
	}{
		{
			name: "speaking_with_reference",
			request: &domain.ScoringRequest{
				Section:      domain.SectionSpeaking,
				QuestionType: "read_aloud",
				Speaking: &domain.SpeakingPayload{
					Transcript:       "The quick brown fox",
					Prompt:           "Read the text aloud.",
					ReferenceText:    "The quick brown fox jumps over the lazy dog.",
					AudioDurationSec: 12.5,
				},
			},
			contains: []string{"The quick brown fox", "Reference text", "12.5 seconds"},
		},
		{
			name: "writing_with_word_limit",
			request: &domain.ScoringRequest{
				Section:      domain.SectionWriting,
				QuestionType: "summarize_written_text",
				Writing: &domain.WritingPayload{
					Text:      "Climate change is accelerating.",
					Prompt:    "Summarize the passage.",
					WordLimit: 75,
				},
			},
			contains: []string{"Word limit: 75 words", "Climate change is accelerating."},
		},
		{
			name: "reading_with_answer_key",
			request: &domain.ScoringRequest{
				Section:      domain.SectionReading,
				QuestionType: "multiple_choice",
				Reading: &domain.ReadingPayload{
					Passage:    "Bees pollinate most flowering plants.",
					Question:   "Which statement is supported?",
					Selections: []string{"A", "C"},
					AnswerKey:  []string{"A"},
				},
			},
			contains: []string{"Bees pollinate", "Answer key"},
		},
		{
			name: "listening_without_answer_key",
			request: &domain.ScoringRequest{
				Section:      domain.SectionListening,
				QuestionType: "write_from_dictation",
				Listening: &domain.ListeningPayload{
					AudioTranscript: "Lectures begin promptly at nine.",
					Question:        "Write the sentence you heard.",
					Response:        "Lectures begin at nine.",
				},
			},
			contains: []string{"audio stimulus", "Lectures begin at nine."},
		},
		{
			name: "payload_missing_for_section",
			request: &domain.ScoringRequest{
				Section:      domain.SectionSpeaking,
				QuestionType: "read_aloud",
			},
			wantErr: domain.ErrMissingPayload,
		},
		{
			name: "unknown_section",
			request: &domain.ScoringRequest{
				Section:      domain.Section("grammar"),
				QuestionType: "x",
			},
			wantErr: domain.ErrUnknownSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := BuildUserPrompt(tt.request)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestBuildUserPrompt_OmitsOptionalBlocks(t *testing.T) {
	prompt, err := BuildUserPrompt(&domain.ScoringRequest{
		Section:      domain.SectionWriting,
		QuestionType: "essay",
		Writing: &domain.WritingPayload{
			Text:   "An essay.",
			Prompt: "Write an essay.",
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Word limit")
}
