package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrElementNotFound indicates an element id that is not on any page.
	ErrElementNotFound = errors.New("element not found")
	// ErrPageNotFound indicates a page index outside the page list.
	ErrPageNotFound = errors.New("page not found")
	// ErrUnknownElementType is returned for element types outside the supported set.
	ErrUnknownElementType = errors.New("unknown element type")
	// ErrContentMismatch means an element's content does not match its type.
	ErrContentMismatch = errors.New("element content does not match element type")
	// ErrInvalidContent marks element content that is well-typed but unusable, such as a crossword clue
	// running off its grid.
	ErrInvalidContent = errors.New("invalid element content")
	// ErrInteractionMismatch means an interaction was sent to an element of another kind.
	ErrInteractionMismatch = errors.New("interaction does not apply to element")
	// ErrNotPreviewing is returned for quiz-taking actions outside preview mode.
	ErrNotPreviewing = errors.New("quiz is not in preview mode")
	// ErrNotAuthoring is returned for editing actions while the quiz is being taken.
	ErrNotAuthoring = errors.New("quiz is not in authoring mode")
	// ErrInvalidDefinition marks an imported quiz definition that fails validation.
	ErrInvalidDefinition = errors.New("invalid quiz definition")
	// ErrUnsupportedVersion marks persisted data written by an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported format version")
	// ErrInvalidState marks a persisted quiz state missing required fields.
	ErrInvalidState = errors.New("invalid persisted quiz state")
)
