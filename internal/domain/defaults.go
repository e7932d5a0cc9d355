package domain

import "fmt"

// DefaultGeometry is the footprint an element gets when dropped at (x, y).
func DefaultGeometry(t ElementType, x, y float64) Geometry {
	g := Geometry{X: x, Y: y, Width: 300, Height: 200}
	switch t {
	case ElementText:
		g.Width, g.Height = 300, 100
	case ElementAudio:
		g.Width, g.Height = 300, 60
	case ElementMultipleChoice:
		g.Width, g.Height = 400, 300
	case ElementCrossword, ElementGridPuzzle, ElementJigsaw:
		g.Width, g.Height = 400, 400
	case ElementMapQuiz:
		g.Width, g.Height = 600, 400
	case ElementTimer:
		g.Width, g.Height = 200, 80
	case ElementContainer, ElementColumns, ElementRows:
		g.Width, g.Height = 600, 300
	}
	return g
}

// DefaultContent returns the starter content for a freshly added element.
func DefaultContent(t ElementType) (Content, error) {
	switch t {
	case ElementText:
		return TextContent{Text: "Enter text here"}, nil
	case ElementImage:
		return ImageContent{}, nil
	case ElementVideo:
		return VideoContent{Controls: true}, nil
	case ElementAudio:
		return AudioContent{Controls: true}, nil
	case ElementMultipleChoice:
		options := make([]Option, 4)
		for i := range options {
			options[i] = Option{ID: fmt.Sprintf("option-%d", i+1), Text: fmt.Sprintf("Option %d", i+1)}
		}
		options[0].IsCorrect = true
		return MultipleChoiceContent{Question: "Enter your question", Options: options}, nil
	case ElementCrossword:
		return CrosswordContent{
			Rows: 5,
			Cols: 5,
			Clues: []CrosswordClue{
				{ID: "clue-1", Number: 1, Direction: Across, Row: 0, Col: 0, Text: "Opposite of cold", Answer: "HOT"},
			},
		}, nil
	case ElementGridPuzzle:
		cells := make([]GridCell, 9)
		for i := range cells {
			cells[i] = GridCell{Index: i}
		}
		return GridPuzzleContent{Rows: 3, Cols: 3, Cells: cells, RevealStyle: RevealClick}, nil
	case ElementMapQuiz:
		return MapQuizContent{Markers: []MapMarker{}, Regions: []Region{}}, nil
	case ElementJigsaw:
		pieces := make([]PuzzlePiece, 9)
		for i := range pieces {
			pieces[i] = PuzzlePiece{ID: fmt.Sprintf("piece-%d", i+1), OriginalIndex: i, CurrentIndex: i, IsCorrect: true}
		}
		return JigsawContent{Rows: 3, Cols: 3, Pieces: pieces}, nil
	case ElementTimer:
		return TimerContent{DurationSeconds: 60, CountDown: true}, nil
	case ElementContainer:
		return ContainerContent{Children: []string{}}, nil
	case ElementColumns:
		return ColumnsContent{Count: 2, Gap: 16}, nil
	case ElementRows:
		return RowsContent{Count: 2, Gap: 16}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, t)
}
