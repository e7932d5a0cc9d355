package scoring

import (
	"fmt"
	"math/rand"

	"canvas-quiz-service/internal/domain"
)

// JigsawBoard tracks piece placement and rotation for one jigsaw element during a quiz run.
type JigsawBoard struct {
	elementID string
	graded    bool
	pieces    []domain.PuzzlePiece
	byID      map[string]int
}

// NewJigsawBoard lays pieces out from content. With a non-nil rng the slots and rotations are
// scrambled first. Graded boards report an aggregate score; ungraded ones only track correctness.
func NewJigsawBoard(elementID string, content domain.JigsawContent, rng *rand.Rand, graded bool) *JigsawBoard {
	pieces := make([]domain.PuzzlePiece, len(content.Pieces))
	copy(pieces, content.Pieces)
	if rng != nil {
		slots := rng.Perm(len(pieces))
		for i := range pieces {
			pieces[i].CurrentIndex = slots[i]
			pieces[i].Rotation = 90 * rng.Intn(4)
		}
	}
	b := &JigsawBoard{elementID: elementID, graded: graded, pieces: pieces, byID: make(map[string]int, len(pieces))}
	for i := range b.pieces {
		b.byID[b.pieces[i].ID] = i
		b.mark(i)
	}
	return b
}

// Place moves a piece to a slot, swapping with whichever piece held it.
func (b *JigsawBoard) Place(pieceID string, index int) (Result, bool) {
	i, ok := b.byID[pieceID]
	if !ok || index < 0 || index >= len(b.pieces) {
		return b.result(), false
	}
	from := b.pieces[i].CurrentIndex
	for j := range b.pieces {
		if j != i && b.pieces[j].CurrentIndex == index {
			b.pieces[j].CurrentIndex = from
			b.mark(j)
		}
	}
	b.pieces[i].CurrentIndex = index
	b.mark(i)
	return b.result(), true
}

// Rotate turns a piece a quarter turn clockwise.
func (b *JigsawBoard) Rotate(pieceID string) (Result, bool) {
	i, ok := b.byID[pieceID]
	if !ok {
		return b.result(), false
	}
	b.pieces[i].Rotation = (b.pieces[i].Rotation + 90) % 360
	b.mark(i)
	return b.result(), true
}

// Pieces returns a copy of the current layout.
func (b *JigsawBoard) Pieces() []domain.PuzzlePiece {
	out := make([]domain.PuzzlePiece, len(b.pieces))
	copy(out, b.pieces)
	return out
}

// Solved reports whether every piece sits in its original slot unrotated.
func (b *JigsawBoard) Solved() bool {
	for _, p := range b.pieces {
		if !p.IsCorrect {
			return false
		}
	}
	return true
}

func (b *JigsawBoard) mark(i int) {
	p := &b.pieces[i]
	p.IsCorrect = p.CurrentIndex == p.OriginalIndex && p.Rotation%360 == 0
}

func (b *JigsawBoard) result() Result {
	correct := 0
	for _, p := range b.pieces {
		if p.IsCorrect {
			correct++
		}
	}
	solved := len(b.pieces) > 0 && correct == len(b.pieces)
	res := Result{
		ElementID: b.elementID,
		Score:     percent(correct, len(b.pieces)),
		Max:       MaxScore,
		Completed: solved,
		Correct:   solved,
		Graded:    b.graded,
	}
	if solved {
		res.Message = "Puzzle solved!"
	} else {
		res.Message = fmt.Sprintf("%d of %d pieces in place.", correct, len(b.pieces))
	}
	return res
}
