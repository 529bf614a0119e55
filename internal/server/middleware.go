package server

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/gokatarajesh/trivia-quiz/internal/config"
)

const requestIDHeader = "X-Request-Id"

// corsMiddleware answers preflight requests for the configured origins.
func corsMiddleware(cfg config.CORS) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}).Handler
}

// requestLogger puts a per-request logger carrying a request ID into the
// context and logs each request once it has been served.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})
	requestID := hlog.RequestIDHandler("req_id", requestIDHeader)
	withLogger := hlog.NewHandler(logger)

	return func(next http.Handler) http.Handler {
		return withLogger(requestID(access(next)))
	}
}
