package domain

import (
	"encoding/json"
	"fmt"
)

// DefinitionVersion tags exported quiz definitions.
const DefinitionVersion = 1

// QuizType is the preset an author picks when creating a quiz.
type QuizType string

const (
	QuizClassic   QuizType = "classic"
	QuizTimed     QuizType = "timed"
	QuizPuzzle    QuizType = "puzzle"
	QuizGeography QuizType = "geography"
)

// Page is one screen of the quiz.
type Page struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Elements []Element `json:"elements"`
}

// ScorableCount counts the elements on the page that take part in scoring.
func (p Page) ScorableCount() int {
	n := 0
	for _, el := range p.Elements {
		if IsScorable(el.Type) {
			n++
		}
	}
	return n
}

// QuizDefinition is the exportable form of a quiz: its pages and chosen preset.
type QuizDefinition struct {
	Version  int      `json:"version"`
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	QuizType QuizType `json:"quizType"`
	Pages    []Page   `json:"pages"`
}

// ScorableCount counts scorable elements across every page.
func (q QuizDefinition) ScorableCount() int {
	n := 0
	for _, p := range q.Pages {
		n += p.ScorableCount()
	}
	return n
}

// Validate checks an imported definition: supported version, at least one page, unique element ids
// and content matching each element type and its consistency rules.
func (q QuizDefinition) Validate() error {
	if q.Version != DefinitionVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, q.Version, DefinitionVersion)
	}
	if q.ID == "" {
		return fmt.Errorf("%w: missing quiz id", ErrInvalidDefinition)
	}
	if len(q.Pages) == 0 {
		return fmt.Errorf("%w: quiz has no pages", ErrInvalidDefinition)
	}
	seen := make(map[string]struct{})
	for pi, p := range q.Pages {
		for _, el := range p.Elements {
			if el.ID == "" {
				return fmt.Errorf("%w: page %d has an element without id", ErrInvalidDefinition, pi)
			}
			if _, dup := seen[el.ID]; dup {
				return fmt.Errorf("%w: duplicate element id %s", ErrInvalidDefinition, el.ID)
			}
			seen[el.ID] = struct{}{}
			if el.Content == nil || el.Content.ElementType() != el.Type {
				return fmt.Errorf("element %s: %w", el.ID, ErrContentMismatch)
			}
			if err := CheckContent(el.Content); err != nil {
				return fmt.Errorf("%w: element %s: %w", ErrInvalidDefinition, el.ID, err)
			}
		}
	}
	return nil
}

// DecodeDefinition parses and validates an exported quiz definition.
func DecodeDefinition(data []byte) (QuizDefinition, error) {
	var def QuizDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return QuizDefinition{}, fmt.Errorf("decode quiz definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return QuizDefinition{}, err
	}
	return def, nil
}
