package scoring

import (
	"fmt"
	"strings"

	"canvas-quiz-service/internal/domain"
)

// CrosswordEntry is a letter typed into a cell.
type CrosswordEntry struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

// CrosswordResult adds per-clue correctness to the aggregate result.
type CrosswordResult struct {
	Result
	Clues map[string]bool `json:"clues"`
}

// Crossword grades the typed letters against the solution derived from the clues.
func Crossword(elementID string, content domain.CrosswordContent, entries []CrosswordEntry) CrosswordResult {
	typed := make(map[domain.Position]string, len(entries))
	for _, e := range entries {
		typed[domain.Position{Row: e.Row, Col: e.Col}] = strings.ToUpper(strings.TrimSpace(e.Letter))
	}

	solution := content.Solution()
	correctCells := 0
	for pos, cell := range solution {
		if typed[pos] == cell.Letter {
			correctCells++
		}
	}

	clues := make(map[string]bool, len(content.Clues))
	solvedClues := 0
	for _, clue := range content.Clues {
		ok := true
		for _, pos := range clue.Cells() {
			cell, inGrid := solution[pos]
			if !inGrid || typed[pos] != cell.Letter {
				ok = false
				break
			}
		}
		clues[clue.ID] = ok
		if ok {
			solvedClues++
		}
	}

	score := percent(correctCells, len(solution))
	res := Result{
		ElementID: elementID,
		Score:     score,
		Max:       MaxScore,
		Completed: score == MaxScore,
		Correct:   score == MaxScore,
		Graded:    true,
	}
	if res.Correct {
		res.Message = "All answers are correct!"
	} else {
		res.Message = fmt.Sprintf("%d of %d clues correct.", solvedClues, len(content.Clues))
	}
	return CrosswordResult{Result: res, Clues: clues}
}
