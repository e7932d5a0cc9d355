package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"canvas-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.QuizDefinition{
			"quiz-1": sampleDefinition(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	def, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(def.Pages) != 1 || len(def.Pages[0].Elements) != 1 {
		t.Fatalf("unexpected definition %+v", def)
	}
}

func TestQuizRepositoryExpiresEntries(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.QuizDefinition{"quiz-1": sampleDefinition()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", loader.calls)
	}
}

func TestQuizRepositorySaveInvalidates(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	def := sampleDefinition()
	if err := repo.SaveQuiz(ctx, def); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, _ = repo.GetQuiz(ctx, "quiz-1")

	def.Title = "Renamed"
	if err := repo.SaveQuiz(ctx, def); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	got, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("expected fresh definition after save, got %q", got.Title)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleDefinition() domain.QuizDefinition {
	return domain.QuizDefinition{
		Version:  domain.DefinitionVersion,
		ID:       "quiz-1",
		Title:    "Arithmetic",
		QuizType: domain.QuizClassic,
		Pages: []domain.Page{{
			ID: "p1",
			Elements: []domain.Element{
				domain.NewElement("mc-1", domain.Geometry{Width: 400, Height: 300}, domain.MultipleChoiceContent{
					Question: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", IsCorrect: true},
					},
				}),
			},
		}},
	}
}
