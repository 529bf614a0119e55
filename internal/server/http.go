package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/auth"
	"github.com/gokatarajesh/trivia-quiz/internal/config"
	"github.com/gokatarajesh/trivia-quiz/internal/play"
	"github.com/gokatarajesh/trivia-quiz/internal/profile"
	"github.com/gokatarajesh/trivia-quiz/internal/question"
	httperrors "github.com/gokatarajesh/trivia-quiz/pkg/http/errors"
)

// Handlers groups the domain handlers mounted by NewHTTPServer. Nil entries
// are skipped.
type Handlers struct {
	AuthService *auth.Service
	Auth        *auth.HTTPHandlers
	Quiz        *play.HTTPHandlers
	QuizWS      http.Handler
	Catalog     *question.Catalog
}

// NewHTTPServer wires routes and middleware for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(cfg, logger, pool, rdb, h),
	}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondBadGateway(w, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Catalog != nil {
		mux.HandleFunc("GET /v1/categories", question.CategoriesHandler(h.Catalog))
	}
	if h.Auth != nil {
		h.Auth.Routes(mux)
	}
	if h.Quiz != nil {
		h.Quiz.Routes(mux)
	}
	if h.QuizWS != nil {
		mux.Handle("/ws/quiz", h.QuizWS)
	} else {
		mux.HandleFunc("/ws/quiz", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not configured", http.StatusNotImplemented)
		})
	}

	var handler http.Handler = mux
	handler = profile.Middleware(cfg.Env == "production")(handler)
	if h.AuthService != nil {
		handler = auth.AuthMiddleware(h.AuthService, logger)(handler)
	}
	handler = corsMiddleware(cfg.CORS)(handler)
	handler = requestLogger(logger)(handler)
	return handler
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if pool == nil && rdb == nil {
		return errors.New("no dependencies configured")
	}
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
