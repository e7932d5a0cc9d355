package cli

import "canvas-quiz-service/internal/domain"

// sampleQuizzes seeds the static loader used when no database is configured.
func sampleQuizzes() map[string]domain.QuizDefinition {
	g := func(x, y, w, h float64) domain.Geometry { return domain.Geometry{X: x, Y: y, Width: w, Height: h} }
	return map[string]domain.QuizDefinition{
		"quiz-1": {
			Version:  domain.DefinitionVersion,
			ID:       "quiz-1",
			Title:    "Warm-up",
			QuizType: domain.QuizClassic,
			Pages: []domain.Page{
				{
					ID:    "page-1",
					Title: "Arithmetic",
					Elements: []domain.Element{
						domain.NewElement("intro", g(40, 40, 400, 80), domain.TextContent{Text: "Pick the right answer."}),
						domain.NewElement("q1", g(40, 140, 400, 300), domain.MultipleChoiceContent{
							Question: "What is 2 + 2?",
							Options: []domain.Option{
								{ID: "o1", Text: "3"},
								{ID: "o2", Text: "4", IsCorrect: true},
								{ID: "o3", Text: "5"},
							},
							ShuffleOptions: true,
						}),
					},
				},
				{
					ID:    "page-2",
					Title: "Words",
					Elements: []domain.Element{
						domain.NewElement("cw1", g(40, 40, 400, 400), domain.CrosswordContent{
							Rows: 5,
							Cols: 5,
							Clues: []domain.CrosswordClue{
								{ID: "c1", Number: 1, Direction: domain.Across, Row: 0, Col: 0, Text: "Opposite of cold", Answer: "HOT"},
								{ID: "c2", Number: 2, Direction: domain.Down, Row: 0, Col: 2, Text: "Highest point", Answer: "TOP"},
							},
						}),
						domain.NewElement("clock", g(460, 40, 200, 80), domain.TimerContent{DurationSeconds: 120, CountDown: true}),
					},
				},
			},
		},
	}
}
