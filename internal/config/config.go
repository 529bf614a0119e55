package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-quiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Quiz     Quiz
	OAuth    OAuth
	CORS     CORS
}

// Postgres captures connection info for the user database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a keyword/value connection string for a single connection.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// ConnString is DSN plus pgxpool settings.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.DSN(), p.MaxConns)
}

// Redis holds quiz store, category cache and token revocation configuration.
type Redis struct {
	Addr      string `env:"REDIS_ADDR,notEmpty"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize  int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"trivia"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:""`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// RefreshSecret falls back to a value derived from JWTSecret.
func (s Security) RefreshSecret() string {
	if s.JWTRefreshSecret != "" {
		return s.JWTRefreshSecret
	}
	return s.JWTSecret + "_refresh"
}

// Quiz groups gameplay defaults and question source settings.
type Quiz struct {
	OpenTDBURL                string        `env:"OPENTDB_URL" envDefault:"https://opentdb.com"`
	QuestionFetchTimeout      time.Duration `env:"QUESTION_FETCH_TIMEOUT" envDefault:"5s"`
	DefaultQuestionCount      int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"5"`
	DefaultSecondsPerQuestion int           `env:"DEFAULT_SECONDS_PER_QUESTION" envDefault:"10"`
	StoreTTL                  time.Duration `env:"QUIZ_STORE_TTL" envDefault:"720h"`
	PlayerIdleTimeout         time.Duration `env:"PLAYER_IDLE_TIMEOUT" envDefault:"10m"`
	CategoryCacheTTL          time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"24h"`
	CategoryRefreshInterval   time.Duration `env:"CATEGORY_REFRESH_INTERVAL" envDefault:"6h"`
}

// OAuth holds OAuth provider configuration.
type OAuth struct {
	GoogleClientID     string `env:"GOOGLE_OAUTH_CLIENT_ID" envDefault:""`
	GoogleClientSecret string `env:"GOOGLE_OAUTH_CLIENT_SECRET" envDefault:""`
	GoogleRedirectURL  string `env:"GOOGLE_OAUTH_REDIRECT_URL" envDefault:""`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,X-Profile-ID"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *App) validate() error {
	if a.Quiz.DefaultQuestionCount < 1 || a.Quiz.DefaultQuestionCount > 50 {
		return fmt.Errorf("DEFAULT_QUESTION_COUNT must be between 1 and 50, got %d", a.Quiz.DefaultQuestionCount)
	}
	if a.Quiz.DefaultSecondsPerQuestion <= 0 {
		return fmt.Errorf("DEFAULT_SECONDS_PER_QUESTION must be positive, got %d", a.Quiz.DefaultSecondsPerQuestion)
	}
	if a.Quiz.PlayerIdleTimeout <= 0 {
		return fmt.Errorf("PLAYER_IDLE_TIMEOUT must be positive")
	}
	return nil
}
