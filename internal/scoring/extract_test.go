package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pteprep/scoring/internal/domain"
)

func TestExtractRawScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		want    func(t *testing.T, score *domain.RawScore)
	}{
		{
			name:    "plain_json",
			content: `{"overall": 72, "subscores": {"grammar": 68, "fluency": 75}, "rationale": "Solid response."}`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 72.0, score.Overall)
				assert.Equal(t, 68.0, score.Subscores["grammar"])
				assert.Equal(t, 75.0, score.Subscores["fluency"])
				assert.Equal(t, "Solid response.", score.Rationale)
			},
		},
		{
			name: "fenced_json_block",
			content: "Here is the evaluation:\n```json\n{\"overall\": 55, \"rationale\": \"Weak cohesion.\"}\n```\nLet me know if you need more.",
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 55.0, score.Overall)
				assert.Equal(t, "Weak cohesion.", score.Rationale)
			},
		},
		{
			name: "unfenced_code_block",
			content: "```\n{\"overall\": 60}\n```",
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 60.0, score.Overall)
			},
		},
		{
			name:    "json_embedded_in_prose",
			content: `The candidate scored well. {"overall": 81, "subscores": {"content": 84}} Overall a strong attempt.`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 81.0, score.Overall)
				assert.Equal(t, 84.0, score.Subscores["content"])
			},
		},
		{
			name:    "trailing_comma_repaired",
			content: `{"overall": 45, "subscores": {"spelling": 40,},}`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 45.0, score.Overall)
				assert.Equal(t, 40.0, score.Subscores["spelling"])
			},
		},
		{
			name:    "missing_closing_brace_repaired",
			content: `{"overall": 30, "rationale": "Incomplete."`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 30.0, score.Overall)
			},
		},
		{
			name:    "out_of_range_values_preserved",
			content: `{"overall": 200, "subscores": {"grammar": -10}}`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 200.0, score.Overall)
				assert.Equal(t, -10.0, score.Subscores["grammar"])
			},
		},
		{
			name:    "extra_keys_kept_in_raw",
			content: `{"overall": 70, "model_notes": "used rubric v2", "confidence": 0.9}`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 70.0, score.Overall)
				assert.Equal(t, "used rubric v2", score.Raw["model_notes"])
				assert.Equal(t, 0.9, score.Raw["confidence"])
			},
		},
		{
			name:    "non_numeric_subscore_skipped",
			content: `{"overall": 50, "subscores": {"grammar": "good", "fluency": 52}}`,
			want: func(t *testing.T, score *domain.RawScore) {
				assert.Equal(t, 52.0, score.Subscores["fluency"])
				_, present := score.Subscores["grammar"]
				assert.False(t, present)
			},
		},
		{
			name:    "empty_content",
			content: "   \n  ",
			wantErr: ErrEmptyContent,
		},
		{
			name:    "no_json_at_all",
			content: "The response demonstrates adequate fluency and should score around 70.",
			wantErr: ErrNoScoreObject,
		},
		{
			name:    "json_without_overall",
			content: `{"subscores": {"grammar": 60}, "rationale": "ok"}`,
			wantErr: ErrMissingOverall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := ExtractRawScore(tt.content)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, score)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, score)
			tt.want(t, score)
		})
	}
}

func TestExtractRawScore_NotClamped(t *testing.T) {
	// Extraction preserves provider values verbatim; the clamp happens in
	// domain.NormalizeRawScore.
	score, err := ExtractRawScore(`{"overall": 1000}`)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, score.Overall)

	normalized := domain.NormalizeRawScore(score)
	assert.Equal(t, float64(domain.MaxScore), normalized.Overall)
	assert.False(t, math.IsNaN(normalized.Overall))
}
