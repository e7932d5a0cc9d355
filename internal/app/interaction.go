package app

import (
	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/scoring"
)

// Interaction is a quiz taker's action on one widget. The set of implementations is closed.
type Interaction interface {
	interaction()
}

// SelectOptions checks a multiple-choice answer.
type SelectOptions struct {
	OptionIDs []string
}

// FillCrossword checks the letters typed into a crossword.
type FillCrossword struct {
	Entries []scoring.CrosswordEntry
}

// RevealCell uncovers one grid-puzzle tile.
type RevealCell struct {
	Index   int
	Trigger domain.RevealStyle
}

// PlacePiece drops a jigsaw piece into a slot.
type PlacePiece struct {
	PieceID string
	Index   int
}

// RotatePiece turns a jigsaw piece a quarter turn.
type RotatePiece struct {
	PieceID string
}

// PlaceMarker pins a map marker.
type PlaceMarker struct {
	MarkerID string
}

// SelectRegion picks a map region.
type SelectRegion struct {
	RegionID string
}

func (SelectOptions) interaction() {}
func (FillCrossword) interaction() {}
func (RevealCell) interaction()    {}
func (PlacePiece) interaction()    {}
func (RotatePiece) interaction()   {}
func (PlaceMarker) interaction()   {}
func (SelectRegion) interaction()  {}

// Outcome is the result of an interaction plus the widget detail a client needs to redraw.
type Outcome struct {
	scoring.Result
	Changed bool                 `json:"changed"`
	Clues   map[string]bool      `json:"clues,omitempty"`
	Pieces  []domain.PuzzlePiece `json:"pieces,omitempty"`
	Markers map[string]bool      `json:"markers,omitempty"`
	Regions map[string]bool      `json:"regions,omitempty"`
}
