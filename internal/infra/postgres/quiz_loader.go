package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"canvas-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads and writes quiz definitions as JSONB in Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("load quiz: %w", err)
	}
	def, err := domain.DecodeDefinition(raw)
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return def, nil
}

// StoreQuiz upserts a definition.
func (l *QuizLoader) StoreQuiz(ctx context.Context, def domain.QuizDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
INSERT INTO quizzes (id, title, quiz_type, data, updated_at)
VALUES ($1, $2, $3, $4::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title, quiz_type = EXCLUDED.quiz_type, data = EXCLUDED.data, updated_at = now()`,
		def.ID, def.Title, string(def.QuizType), string(data))
	if err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	return nil
}
