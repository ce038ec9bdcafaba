package scoring

import (
	"fmt"
	"strings"

	"github.com/pteprep/scoring/internal/domain"
)

// systemPromptBase frames every scoring call. The output contract is stated
// twice because models follow repeated instructions more reliably.
const systemPromptBase = `You are an examiner for the Pearson Test of English (PTE Academic).
Score the learner response on the official 0-90 scale.
Respond with a single JSON object and nothing else. The object must have:
  "overall": number from 0 to 90
  "subscores": object mapping trait names to numbers from 0 to 90%s
Output only the JSON object. Do not wrap it in markdown fences.`

const rationaleField = "\n  \"rationale\": a short explanation of the score"

// Traits the rubric asks for, per section. These mirror the published PTE
// enabling skills.
var sectionTraits = map[domain.Section][]string{
	domain.SectionSpeaking:  {"content", "pronunciation", "fluency"},
	domain.SectionWriting:   {"content", "grammar", "vocabulary", "spelling", "coherence"},
	domain.SectionReading:   {"accuracy"},
	domain.SectionListening: {"accuracy", "content"},
}

// BuildSystemPrompt renders the rubric instructions for one section and
// task type.
func BuildSystemPrompt(section domain.Section, questionType string, includeRationale bool) string {
	rationale := ""
	if includeRationale {
		rationale = rationaleField
	}

	var b strings.Builder
	fmt.Fprintf(&b, systemPromptBase, rationale)
	fmt.Fprintf(&b, "\nSection: %s. Task type: %s.", section, questionType)
	if traits := sectionTraits[section]; len(traits) != 0 {
		fmt.Fprintf(&b, "\nScore these traits in \"subscores\": %s.", strings.Join(traits, ", "))
	}
	return b.String()
}

// BuildUserPrompt renders the learner payload for the provider. The request
// must already be validated; an unexpected nil payload is a programming
// error and reported as such.
func BuildUserPrompt(req *domain.ScoringRequest) (string, error) {
	switch req.Section {
	case domain.SectionSpeaking:
		if req.Speaking == nil {
			return "", fmt.Errorf("%w: section %s", domain.ErrMissingPayload, req.Section)
		}
		return speakingPrompt(req.Speaking), nil
	case domain.SectionWriting:
		if req.Writing == nil {
			return "", fmt.Errorf("%w: section %s", domain.ErrMissingPayload, req.Section)
		}
		return writingPrompt(req.Writing), nil
	case domain.SectionReading:
		if req.Reading == nil {
			return "", fmt.Errorf("%w: section %s", domain.ErrMissingPayload, req.Section)
		}
		return readingPrompt(req.Reading), nil
	case domain.SectionListening:
		if req.Listening == nil {
			return "", fmt.Errorf("%w: section %s", domain.ErrMissingPayload, req.Section)
		}
		return listeningPrompt(req.Listening), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownSection, req.Section)
	}
}

func speakingPrompt(p *domain.SpeakingPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task prompt:\n%s\n", p.Prompt)
	if p.ReferenceText != "" {
		fmt.Fprintf(&b, "\nReference text the learner was asked to read:\n%s\n", p.ReferenceText)
	}
	fmt.Fprintf(&b, "\nTranscript of the learner's spoken response:\n%s\n", p.Transcript)
	if p.AudioDurationSec > 0 {
		fmt.Fprintf(&b, "\nRecording duration: %.1f seconds.\n", p.AudioDurationSec)
	}
	return b.String()
}

func writingPrompt(p *domain.WritingPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task prompt:\n%s\n", p.Prompt)
	if p.WordLimit > 0 {
		fmt.Fprintf(&b, "\nWord limit: %d words.\n", p.WordLimit)
	}
	fmt.Fprintf(&b, "\nLearner's written response:\n%s\n", p.Text)
	return b.String()
}

func readingPrompt(p *domain.ReadingPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Passage:\n%s\n", p.Passage)
	fmt.Fprintf(&b, "\nQuestion:\n%s\n", p.Question)
	fmt.Fprintf(&b, "\nLearner's selections, in order:\n%s\n", strings.Join(p.Selections, "\n"))
	if len(p.AnswerKey) != 0 {
		fmt.Fprintf(&b, "\nAnswer key:\n%s\n", strings.Join(p.AnswerKey, "\n"))
	}
	return b.String()
}

func listeningPrompt(p *domain.ListeningPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcript of the audio stimulus:\n%s\n", p.AudioTranscript)
	fmt.Fprintf(&b, "\nQuestion:\n%s\n", p.Question)
	fmt.Fprintf(&b, "\nLearner's response:\n%s\n", p.Response)
	if len(p.AnswerKey) != 0 {
		fmt.Fprintf(&b, "\nAnswer key:\n%s\n", strings.Join(p.AnswerKey, "\n"))
	}
	return b.String()
}
