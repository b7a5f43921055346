package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"starting5-service/internal/app"
	"starting5-service/internal/config"
	"starting5-service/internal/infra/memory"
	pginfra "starting5-service/internal/infra/postgres"
	"starting5-service/internal/infra/quizfile"
	redisinfra "starting5-service/internal/infra/redis"
	transport "starting5-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
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
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	store := quizfile.NewStore(cfg.Quiz.CurrentDir, cfg.Quiz.PreloadedDir, cfg.Quiz.ConferencesPath)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if redisClient != nil {
		quizzes = redisinfra.NewQuizCache(redisClient, store, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(store, quizTTL)
	}

	var scores app.ScoreRepository
	if pool != nil {
		scores = pginfra.NewScoreRepository(pool)
	} else {
		logger.Warn("postgres url not configured, scores are kept in memory")
		scores = memory.NewScoreRepository()
	}

	hub := app.NewLiveHub()
	service := app.NewQuizService(quizzes, scores, hub)

	var users transport.UserResolver = transport.Anonymous{}
	if cfg.Auth.Enabled {
		users = transport.NewSessionResolver(scores)
	}

	quizHandler := transport.NewQuizHandler(service, store, users, logger)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	quizHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
