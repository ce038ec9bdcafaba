// Package scoring orchestrates exam response scoring across LLM providers:
// prompt construction, sequential provider fallback, response extraction,
// and health aggregation.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pteprep/scoring/internal/domain"
)

// Extraction errors for provider score content.
var (
	ErrEmptyContent   = errors.New("empty response content")
	ErrNoScoreObject  = errors.New("no score object found in response")
	ErrMissingOverall = errors.New("score object missing overall value")
)

var (
	fencedJSONPatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```"),
		regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```"),
		regexp.MustCompile("`(\\{.*?\\})`"),
	}
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractRawScore parses a provider's text output into a RawScore. LLMs
// wrap JSON in markdown fences or prose despite instructions, so extraction
// is progressive: parse as-is, then with JSON repair, then after pulling the
// object out of surrounding text. Values are NOT clamped here; that is the
// normalizer's job.
func ExtractRawScore(content string) (*domain.RawScore, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	candidates := []string{content}
	if repaired := repairJSON(content); repaired != content {
		candidates = append(candidates, repaired)
	}
	if extracted := extractJSONObject(content); extracted != content {
		candidates = append(candidates, extracted, repairJSON(extracted))
	}

	var lastErr error
	for _, candidate := range candidates {
		score, err := parseScoreObject(candidate)
		if err == nil {
			return score, nil
		}
		lastErr = err
	}

	if errors.Is(lastErr, ErrMissingOverall) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %s", ErrNoScoreObject, truncateForError(content))
}

// parseScoreObject unmarshals one candidate JSON string. It goes through a
// generic map first so unknown provider keys survive into Raw and a missing
// overall field is distinguishable from an explicit zero.
func parseScoreObject(candidate string) (*domain.RawScore, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, err
	}

	overall, ok := obj["overall"].(float64)
	if !ok {
		return nil, ErrMissingOverall
	}

	score := &domain.RawScore{Overall: overall}

	if subs, ok := obj["subscores"].(map[string]any); ok {
		score.Subscores = make(map[string]float64, len(subs))
		for name, v := range subs {
			if f, ok := v.(float64); ok {
				score.Subscores[name] = f
			}
		}
	}

	if rationale, ok := obj["rationale"].(string); ok {
		score.Rationale = rationale
	}

	for key, v := range obj {
		switch key {
		case "overall", "subscores", "rationale":
			continue
		}
		if score.Raw == nil {
			score.Raw = make(map[string]any)
		}
		score.Raw[key] = v
	}

	return score, nil
}

// repairJSON fixes common syntax errors in LLM JSON output: trailing
// commas, unbalanced braces, and a BOM prefix.
func repairJSON(content string) string {
	repaired := trailingCommaPattern.ReplaceAllString(content, "$1")

	openBraces := strings.Count(repaired, "{") - strings.Count(repaired, "}")
	openBrackets := strings.Count(repaired, "[") - strings.Count(repaired, "]")
	for i := 0; i < openBraces; i++ {
		repaired += "}"
	}
	for i := 0; i < openBrackets; i++ {
		repaired += "]"
	}

	repaired = strings.TrimPrefix(repaired, "\uFEFF")

	return strings.TrimSpace(repaired)
}

// extractJSONObject pulls a JSON object out of markdown fences or
// surrounding prose. Falls back to the span between the first { and the
// last }.
func extractJSONObject(content string) string {
	for _, re := range fencedJSONPatterns {
		if matches := re.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		return content[start : end+1]
	}

	return content
}

const errorSnippetLength = 120

func truncateForError(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > errorSnippetLength {
		return content[:errorSnippetLength] + "..."
	}
	return content
}
