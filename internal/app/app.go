package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/auth"
	"github.com/gokatarajesh/trivia-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-quiz/internal/config"
	"github.com/gokatarajesh/trivia-quiz/internal/db/repository"
	"github.com/gokatarajesh/trivia-quiz/internal/logging"
	"github.com/gokatarajesh/trivia-quiz/internal/play"
	"github.com/gokatarajesh/trivia-quiz/internal/question"
	"github.com/gokatarajesh/trivia-quiz/internal/question/external"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz/store"
	"github.com/gokatarajesh/trivia-quiz/internal/server"
	ws "github.com/gokatarajesh/trivia-quiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	registry  *play.Registry
	refresher *question.CategoryRefresher
	bgCancels []context.CancelFunc
}

// New bootstraps logger, Postgres, Redis, the quiz services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.NewWithOutput(os.Stdout, cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// Auth
	userRepo := repository.NewUserRepository(pool)
	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.RefreshSecret()),
			AccessTTL:     cfg.Security.AccessTokenTTL,
			RefreshTTL:    cfg.Security.RefreshTokenTTL,
			Issuer:        cfg.Name,
		},
		Redis: redisClient,
	}, logger)

	redirectURL := cfg.OAuth.GoogleRedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
	}
	oauthSvc := auth.NewOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, logger)
	if oauthSvc == nil {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}
	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, logger)

	// Questions and categories
	opentdb := external.NewOpenTDBClient(cfg.Quiz.OpenTDBURL, nil)
	source := question.NewSource(opentdb, cfg.Quiz.QuestionFetchTimeout)
	catalog := question.NewCatalog(opentdb, question.NewCache(redisClient, cfg.Quiz.CategoryCacheTTL), logger)
	refresher := question.NewCategoryRefresher(catalog, cfg.Quiz.CategoryRefreshInterval, cfg.Quiz.QuestionFetchTimeout, logger)

	// Quiz lifecycle per profile over one shared Redis store
	shared := store.NewRedis(redisClient, cfg.Redis.KeyPrefix, cfg.Quiz.StoreTTL)
	lifecycleOpts := quiz.Options{DefaultSecondsPerQuestion: cfg.Quiz.DefaultSecondsPerQuestion}
	registry := play.NewRegistry(func(profileID string) *quiz.Lifecycle {
		st := store.Namespace(shared, store.ProfilePrefix(profileID))
		return quiz.NewLifecycle(st, source, logger.With().Str("profile_id", profileID).Logger(), lifecycleOpts)
	}, cfg.Quiz.PlayerIdleTimeout, logger)

	defaults := quiz.Configuration{
		QuestionCount:      cfg.Quiz.DefaultQuestionCount,
		SecondsPerQuestion: cfg.Quiz.DefaultSecondsPerQuestion,
	}
	quizHTTP := play.NewHTTPHandlers(registry, defaults, catalog, logger)
	quizWS := play.NewHandler(registry, ws.NewHub(logger), play.HandlerOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Defaults:       defaults,
		Categories:     catalog,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		AuthService: authSvc,
		Auth:        authHandlers,
		Quiz:        quizHTTP,
		QuizWS:      quizWS,
		Catalog:     catalog,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		registry:  registry,
		refresher: refresher,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.refresher.Stop()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	go a.refresher.Run()

	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go a.registry.Run(bgCtx)
}
