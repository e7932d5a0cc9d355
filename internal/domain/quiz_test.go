package domain

import (
	"errors"
	"testing"
)

func validDefinition() QuizDefinition {
	return QuizDefinition{
		Version:  DefinitionVersion,
		ID:       "quiz-1",
		QuizType: QuizPuzzle,
		Pages: []Page{
			{ID: "p1", Elements: []Element{
				NewElement("t1", Geometry{Width: 1, Height: 1}, TextContent{Text: "Intro"}),
				NewElement("g1", Geometry{Width: 1, Height: 1}, GridPuzzleContent{Rows: 2, Cols: 2}),
			}},
			{ID: "p2", Elements: []Element{
				NewElement("m1", Geometry{Width: 1, Height: 1}, MultipleChoiceContent{Question: "?"}),
				NewElement("timer", Geometry{Width: 1, Height: 1}, TimerContent{DurationSeconds: 30}),
			}},
		},
	}
}

func TestScorableCountSpansPages(t *testing.T) {
	def := validDefinition()
	if got := def.ScorableCount(); got != 2 {
		t.Fatalf("expected 2 scorable elements, got %d", got)
	}
	if got := def.Pages[0].ScorableCount(); got != 1 {
		t.Fatalf("expected 1 on first page, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}

	dup := validDefinition()
	dup.Pages[1].Elements[0].ID = "t1"
	if err := dup.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected duplicate id rejected, got %v", err)
	}

	noPages := validDefinition()
	noPages.Pages = nil
	if err := noPages.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected empty quiz rejected, got %v", err)
	}

	mismatch := validDefinition()
	mismatch.Pages[0].Elements[0].Type = ElementImage
	if err := mismatch.Validate(); !errors.Is(err, ErrContentMismatch) {
		t.Fatalf("expected mismatch rejected, got %v", err)
	}

	future := validDefinition()
	future.Version = 2
	if err := future.Validate(); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected version rejected, got %v", err)
	}
}

func TestGridCellCountClampsDimensions(t *testing.T) {
	if got := (GridPuzzleContent{Rows: -3, Cols: 4}).CellCount(); got != 4 {
		t.Fatalf("expected 4 cells, got %d", got)
	}
}

func TestValidateRejectsCrosswordClueOffGrid(t *testing.T) {
	def := validDefinition()
	def.Pages[0].Elements = append(def.Pages[0].Elements, NewElement("cw", Geometry{Width: 1, Height: 1}, CrosswordContent{
		Rows: 2, Cols: 2,
		Clues: []CrosswordClue{{ID: "c1", Number: 1, Direction: Across, Row: 0, Col: 0, Answer: "HOT"}},
	}))
	err := def.Validate()
	if !errors.Is(err, ErrInvalidDefinition) || !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected off-grid clue rejected, got %v", err)
	}

	def.Pages[0].Elements[2].Content = CrosswordContent{
		Rows: 3, Cols: 3,
		Clues: []CrosswordClue{{ID: "c1", Number: 1, Direction: Down, Row: 0, Col: 2, Answer: "HOT"}},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("clue ending on the last row rejected: %v", err)
	}
}
