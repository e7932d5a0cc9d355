package scoring

import (
	"fmt"

	"canvas-quiz-service/internal/domain"
)

// GridBoard is the reveal state of one grid-puzzle element during a quiz run.
type GridBoard struct {
	elementID string
	content   domain.GridPuzzleContent
	revealed  map[int]struct{}
}

// NewGridBoard starts a board with every cell hidden.
func NewGridBoard(elementID string, content domain.GridPuzzleContent) *GridBoard {
	return &GridBoard{elementID: elementID, content: content, revealed: make(map[int]struct{})}
}

// Reveal uncovers a cell. The trigger must match the configured reveal style; both default to click.
// Repeated, mismatched or out-of-range reveals change nothing and return ok=false.
func (b *GridBoard) Reveal(index int, trigger domain.RevealStyle) (Result, bool) {
	style := b.content.RevealStyle
	if style == "" {
		style = domain.RevealClick
	}
	if trigger == "" {
		trigger = domain.RevealClick
	}
	if trigger != style || index < 0 || index >= b.content.CellCount() {
		return b.result(), false
	}
	if _, done := b.revealed[index]; done {
		return b.result(), false
	}
	b.revealed[index] = struct{}{}
	return b.result(), true
}

// Revealed reports whether a cell is uncovered.
func (b *GridBoard) Revealed(index int) bool {
	_, ok := b.revealed[index]
	return ok
}

func (b *GridBoard) result() Result {
	total := b.content.CellCount()
	done := len(b.revealed) == total
	res := Result{
		ElementID: b.elementID,
		Score:     percent(len(b.revealed), total),
		Max:       MaxScore,
		Completed: done,
		Correct:   done,
		Graded:    true,
	}
	if done {
		res.Message = "Puzzle fully revealed!"
	} else {
		res.Message = fmt.Sprintf("%d of %d cells revealed.", len(b.revealed), total)
	}
	return res
}
