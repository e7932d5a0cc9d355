package domain

import (
	"fmt"
	"strings"
)

// TextContent is a block of rich text.
type TextContent struct {
	Text string `json:"text"`
}

// ImageContent references a still image.
type ImageContent struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// VideoContent references a video clip.
type VideoContent struct {
	Src      string `json:"src"`
	Autoplay bool   `json:"autoplay,omitempty"`
	Controls bool   `json:"controls"`
}

// AudioContent references an audio clip.
type AudioContent struct {
	Src      string `json:"src"`
	Controls bool   `json:"controls"`
}

// Option is a selectable answer of a multiple-choice element. IDs are stable across shuffles.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// MultipleChoiceContent is a question with one or more correct options.
type MultipleChoiceContent struct {
	Question       string   `json:"question"`
	Options        []Option `json:"options"`
	AllowMultiple  bool     `json:"allowMultiple"`
	ShuffleOptions bool     `json:"shuffleOptions"`
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (c MultipleChoiceContent) CorrectOptionIDs() map[string]struct{} {
	out := make(map[string]struct{})
	for _, opt := range c.Options {
		if opt.IsCorrect {
			out[opt.ID] = struct{}{}
		}
	}
	return out
}

// Direction of a crossword clue.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// CrosswordClue places an answer on the grid starting at (Row, Col).
type CrosswordClue struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Text      string    `json:"text"`
	Answer    string    `json:"answer"`
}

// Cells returns the grid positions covered by the clue's answer, in reading order.
func (c CrosswordClue) Cells() []Position {
	letters := []rune(strings.ToUpper(strings.TrimSpace(c.Answer)))
	out := make([]Position, 0, len(letters))
	for i := range letters {
		p := Position{Row: c.Row, Col: c.Col}
		if c.Direction == Down {
			p.Row += i
		} else {
			p.Col += i
		}
		out = append(out, p)
	}
	return out
}

// Position addresses a cell on a crossword grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CrosswordCell is a letter cell of the solved grid.
type CrosswordCell struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
	Number int    `json:"number,omitempty"`
}

// CrosswordContent is a grid of clues. Answer cells are derived from the clues.
type CrosswordContent struct {
	Rows  int             `json:"rows"`
	Cols  int             `json:"cols"`
	Clues []CrosswordClue `json:"clues"`
}

// Check rejects clues whose answer cells leave the Rows x Cols grid.
func (c CrosswordContent) Check() error {
	for _, clue := range c.Clues {
		for _, p := range clue.Cells() {
			if p.Row < 0 || p.Col < 0 || p.Row >= c.Rows || p.Col >= c.Cols {
				return fmt.Errorf("%w: clue %s leaves the %dx%d grid at row %d col %d", ErrInvalidContent, clue.ID, c.Rows, c.Cols, p.Row, p.Col)
			}
		}
	}
	return nil
}

// Solution maps every answer cell to its expected upper-case letter. When two clues disagree on a
// shared cell the first clue wins. Cells outside the grid are dropped.
func (c CrosswordContent) Solution() map[Position]CrosswordCell {
	out := make(map[Position]CrosswordCell)
	for _, clue := range c.Clues {
		letters := []rune(strings.ToUpper(strings.TrimSpace(clue.Answer)))
		for i, p := range clue.Cells() {
			if p.Row < 0 || p.Col < 0 || p.Row >= c.Rows || p.Col >= c.Cols {
				continue
			}
			cell, ok := out[p]
			if !ok {
				cell = CrosswordCell{Row: p.Row, Col: p.Col, Letter: string(letters[i])}
			}
			if i == 0 && cell.Number == 0 {
				cell.Number = clue.Number
			}
			out[p] = cell
		}
	}
	return out
}

// RevealStyle selects the interaction that uncovers a grid-puzzle cell.
type RevealStyle string

const (
	RevealClick RevealStyle = "click"
	RevealHover RevealStyle = "hover"
)

// GridCell is one tile of a grid puzzle.
type GridCell struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// GridPuzzleContent hides an image or text behind Rows x Cols tiles.
type GridPuzzleContent struct {
	Rows        int         `json:"rows"`
	Cols        int         `json:"cols"`
	Cells       []GridCell  `json:"cells"`
	RevealStyle RevealStyle `json:"revealStyle"`
	ImageSrc    string      `json:"imageSrc,omitempty"`
}

// CellCount is the number of tiles, with each dimension clamped to at least 1.
func (c GridPuzzleContent) CellCount() int {
	return max(c.Rows, 1) * max(c.Cols, 1)
}

// PuzzlePiece is a jigsaw piece. Rotation is in degrees.
type PuzzlePiece struct {
	ID            string `json:"id"`
	OriginalIndex int    `json:"originalIndex"`
	CurrentIndex  int    `json:"currentIndex"`
	Rotation      int    `json:"rotation"`
	IsCorrect     bool   `json:"isCorrect"`
}

// JigsawContent cuts an image into Rows x Cols pieces.
type JigsawContent struct {
	ImageSrc string        `json:"imageSrc"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Pieces   []PuzzlePiece `json:"pieces"`
}

// Point is a map coordinate in percent of the map image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapMarker is a pin the quiz taker may place.
type MapMarker struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	IsCorrect bool    `json:"isCorrect"`
}

// Region is a selectable polygon on the map.
type Region struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Points    []Point `json:"points"`
	IsCorrect bool    `json:"isCorrect"`
}

// MapQuizContent asks the quiz taker to locate markers or regions.
type MapQuizContent struct {
	MapSrc  string      `json:"mapSrc"`
	Prompt  string      `json:"prompt,omitempty"`
	Markers []MapMarker `json:"markers"`
	Regions []Region    `json:"regions"`
}

// TimerContent displays a countdown or a stopwatch.
type TimerContent struct {
	DurationSeconds int  `json:"durationSeconds"`
	CountDown       bool `json:"countDown"`
}

// ContainerContent groups other elements by id.
type ContainerContent struct {
	Children []string `json:"children"`
}

// ColumnsContent lays children out side by side.
type ColumnsContent struct {
	Count int     `json:"count"`
	Gap   float64 `json:"gap"`
}

// RowsContent stacks children vertically.
type RowsContent struct {
	Count int     `json:"count"`
	Gap   float64 `json:"gap"`
}

func (TextContent) ElementType() ElementType           { return ElementText }
func (ImageContent) ElementType() ElementType          { return ElementImage }
func (VideoContent) ElementType() ElementType          { return ElementVideo }
func (AudioContent) ElementType() ElementType          { return ElementAudio }
func (MultipleChoiceContent) ElementType() ElementType { return ElementMultipleChoice }
func (CrosswordContent) ElementType() ElementType      { return ElementCrossword }
func (GridPuzzleContent) ElementType() ElementType     { return ElementGridPuzzle }
func (MapQuizContent) ElementType() ElementType        { return ElementMapQuiz }
func (JigsawContent) ElementType() ElementType         { return ElementJigsaw }
func (TimerContent) ElementType() ElementType          { return ElementTimer }
func (ContainerContent) ElementType() ElementType      { return ElementContainer }
func (ColumnsContent) ElementType() ElementType        { return ElementColumns }
func (RowsContent) ElementType() ElementType           { return ElementRows }

func (TextContent) sealed()           {}
func (ImageContent) sealed()          {}
func (VideoContent) sealed()          {}
func (AudioContent) sealed()          {}
func (MultipleChoiceContent) sealed() {}
func (CrosswordContent) sealed()      {}
func (GridPuzzleContent) sealed()     {}
func (MapQuizContent) sealed()        {}
func (JigsawContent) sealed()         {}
func (TimerContent) sealed()          {}
func (ContainerContent) sealed()      {}
func (ColumnsContent) sealed()        {}
func (RowsContent) sealed()           {}
