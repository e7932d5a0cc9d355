package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/config"
	"canvas-quiz-service/internal/infra/memory"
	pgstore "canvas-quiz-service/internal/infra/postgres"
	redisstore "canvas-quiz-service/internal/infra/redis"
	"canvas-quiz-service/internal/logger"
	"canvas-quiz-service/internal/media"
	"canvas-quiz-service/internal/metrics"
	transport "canvas-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()
	metrics.Init()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	persister, err := newStatePersister(cfg, redisClient, pool)
	if err != nil {
		return err
	}

	blobs, mediaDir, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	service := app.NewQuizService(store, quizRepo, app.ServiceOptions{
		Persister:           persister,
		AutosaveInterval:    config.TTLDuration(cfg.Session.AutosaveInterval, 30*time.Second),
		AutoAdvanceDelay:    config.TTLDuration(cfg.Session.AutoAdvanceDelay, app.DefaultAutoAdvanceDelay),
		GradeSpatialWidgets: cfg.Session.GradeSpatialWidgets,
		Logger:              log,
	})

	handler := transport.NewRouter(transport.RouterOptions{
		WS:       transport.NewWSHandler(service, log),
		Quizzes:  transport.NewQuizHandler(service, media.NewIngestor(blobs), cfg.Media.MaxUploadBytes, log),
		MediaDir: mediaDir,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort), zap.String("state_backend", cfg.Session.StateBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newStatePersister(cfg config.Config, client *redis.Client, pool *pgxpool.Pool) (app.StatePersister, error) {
	switch cfg.Session.StateBackend {
	case "", "memory":
		return memory.NewStateStore(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("state backend redis: redis addr not configured")
		}
		return redisstore.NewStateStore(client, config.TTLDuration(cfg.Redis.StateTTL, 7*24*time.Hour)), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("state backend postgres: postgres url not configured")
		}
		return pgstore.NewStateStore(pool), nil
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.Session.StateBackend)
}

// newBlobStore returns the configured media store and, for local storage, the directory to serve.
func newBlobStore(ctx context.Context, cfg config.Config) (media.BlobStore, string, error) {
	switch cfg.Media.Type {
	case "", "local":
		fs, err := media.NewFSStore(cfg.Media.LocalPath, cfg.Media.URLPrefix)
		if err != nil {
			return nil, "", err
		}
		return fs, fs.Dir(), nil
	case "minio":
		store, err := media.NewMinioStore(ctx, media.MinioOptions{
			Endpoint:  cfg.Media.MinioEndpoint,
			AccessKey: cfg.Media.MinioAccessKey,
			SecretKey: cfg.Media.MinioSecretKey,
			Bucket:    cfg.Media.MinioBucket,
			UseSSL:    cfg.Media.MinioUseSSL,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}
	return nil, "", fmt.Errorf("unknown media type %q", cfg.Media.Type)
}
