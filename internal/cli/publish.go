package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/config"
	"canvas-quiz-service/internal/domain"
	pgstore "canvas-quiz-service/internal/infra/postgres"
	redisstore "canvas-quiz-service/internal/infra/redis"
	"canvas-quiz-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPublishCmd stores exported quiz definition files in Postgres.
func NewPublishCmd(configPath *string) *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Store exported quiz definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), *configPath, append(files, args...))
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "quiz definition JSON file")
	return cmd
}

func runPublish(ctx context.Context, configPath string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no quiz definition files given")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var repo app.QuizRepository = directRepository{pgstore.NewQuizLoader(pool)}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		repo = redisstore.NewQuizRepository(client, pgstore.NewQuizLoader(pool), config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		def, err := domain.DecodeDefinition(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := repo.SaveQuiz(ctx, def); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Info("quiz published", zap.String("file", path), zap.String("quiz", def.ID), zap.Int("pages", len(def.Pages)))
	}
	return nil
}

// directRepository writes straight to the loader when no cache needs evicting.
type directRepository struct {
	loader *pgstore.QuizLoader
}

func (r directRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return r.loader.LoadQuiz(ctx, quizID)
}

func (r directRepository) SaveQuiz(ctx context.Context, def domain.QuizDefinition) error {
	return r.loader.StoreQuiz(ctx, def)
}
