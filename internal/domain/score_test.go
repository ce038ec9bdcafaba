package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampTo90(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "in_range", in: 42, want: 42},
		{name: "zero", in: 0, want: 0},
		{name: "max", in: 90, want: 90},
		{name: "negative", in: -5, want: 0},
		{name: "above_max", in: 150, want: 90},
		{name: "nan", in: math.NaN(), want: 0},
		{name: "positive_inf", in: math.Inf(1), want: 0},
		{name: "negative_inf", in: math.Inf(-1), want: 0},
		{name: "fractional", in: 64.5, want: 64.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampTo90(tt.in))
		})
	}
}

func TestClampTo90_Idempotent(t *testing.T) {
	inputs := []float64{-1000, -5, 0, 0.5, 42, 89.99, 90, 91, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, x := range inputs {
		once := ClampTo90(x)
		assert.Equal(t, once, ClampTo90(once), "clamp must be idempotent for %v", x)
	}
}

func TestClampTo90_Bounds(t *testing.T) {
	inputs := []float64{-1e18, -90, -0.001, 0, 45, 90, 90.001, 1e18, math.NaN()}
	for _, x := range inputs {
		got := ClampTo90(x)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, float64(MaxScore))
		assert.False(t, math.IsNaN(got))
	}
}

func TestNormalizeRawScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      *RawScore
		validate func(t *testing.T, got NormalizedScore)
	}{
		{
			name: "all_fields_clamped",
			raw: &RawScore{
				Overall: 200,
				Subscores: map[string]float64{
					"grammar":    -10,
					"vocabulary": 60,
					"fluency":    math.NaN(),
				},
				Rationale: "solid response",
			},
			validate: func(t *testing.T, got NormalizedScore) {
				assert.Equal(t, float64(90), got.Overall)
				assert.Equal(t, float64(0), got.Subscores["grammar"])
				assert.Equal(t, float64(60), got.Subscores["vocabulary"])
				assert.Equal(t, float64(0), got.Subscores["fluency"])
				assert.Equal(t, "solid response", got.Rationale)
			},
		},
		{
			name: "nil_raw_degrades_to_zero",
			raw:  nil,
			validate: func(t *testing.T, got NormalizedScore) {
				assert.Zero(t, got.Overall)
				assert.Empty(t, got.Subscores)
			},
		},
		{
			name: "metadata_passthrough",
			raw: &RawScore{
				Overall: 65,
				Raw:     map[string]any{"model": "gpt-4o"},
			},
			validate: func(t *testing.T, got NormalizedScore) {
				assert.Equal(t, float64(65), got.Overall)
				assert.Equal(t, "gpt-4o", got.Metadata["model"])
			},
		},
		{
			name: "long_rationale_truncated",
			raw: &RawScore{
				Overall:   70,
				Rationale: strings.Repeat("a", MaxRationaleLength+100),
			},
			validate: func(t *testing.T, got NormalizedScore) {
				assert.Len(t, got.Rationale, MaxRationaleLength)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NormalizeRawScore(tt.raw))
		})
	}
}

func TestNormalizeRawScore_SubscoreCoverage(t *testing.T) {
	raw := &RawScore{
		Overall: 50,
		Subscores: map[string]float64{
			"grammar": 120, "vocabulary": -3, "spelling": 77,
			"form": math.Inf(1), "content": 45.5,
		},
	}

	got := NormalizeRawScore(raw)

	require.Len(t, got.Subscores, len(raw.Subscores))
	for name := range raw.Subscores {
		v, ok := got.Subscores[name]
		require.True(t, ok, "missing subscore %q", name)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, float64(MaxScore))
	}
}
