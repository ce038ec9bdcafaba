// Package domain defines the core types for PTE answer scoring: sections,
// scoring requests, raw and normalized scores, and provider health reports.
// All values are transient - nothing in this package outlives a single
// scoring invocation.
package domain

import "fmt"

// Section identifies one of the four PTE skill areas. Each section has its
// own question types, payload shape, and scoring rubric.
type Section string

const (
	// SectionSpeaking covers spoken-response tasks (read aloud, repeat
	// sentence, describe image, retell lecture).
	SectionSpeaking Section = "speaking"

	// SectionWriting covers written-response tasks (summarize written text,
	// essay).
	SectionWriting Section = "writing"

	// SectionReading covers reading comprehension tasks (multiple choice,
	// reorder paragraphs, fill in the blanks).
	SectionReading Section = "reading"

	// SectionListening covers listening comprehension tasks (summarize spoken
	// text, highlight incorrect words, write from dictation).
	SectionListening Section = "listening"
)

// Sections lists every valid section in canonical order.
func Sections() []Section {
	return []Section{SectionSpeaking, SectionWriting, SectionReading, SectionListening}
}

// IsValid reports whether s is one of the four known sections.
func (s Section) IsValid() bool {
	switch s {
	case SectionSpeaking, SectionWriting, SectionReading, SectionListening:
		return true
	default:
		return false
	}
}

// ParseSection converts a string into a Section, accepting only the four
// canonical lowercase identifiers.
func ParseSection(raw string) (Section, error) {
	s := Section(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, raw)
	}
	return s, nil
}
