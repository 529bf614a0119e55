package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-quiz/internal/db/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("valid email required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTokenRevoked       = errors.New("token revoked")
)

type userRepository interface {
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	UpdateLogin(ctx context.Context, id uuid.UUID) error
}

// Service handles authentication and user management.
type Service struct {
	users    userRepository
	tokenMgr *jwt.Manager
	redis    *redis.Client
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	// Redis holds revoked refresh token IDs; nil disables sign-out revocation.
	Redis *redis.Client
}

// NewService creates an authentication service.
func NewService(users userRepository, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		redis:    opts.Redis,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, nil, err
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	row, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: pgtype.Text{String: passwordHash, Valid: true},
		DisplayName:  displayName,
		AuthProvider: ProviderPassword,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, nil, ErrEmailTaken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := toUser(row)
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return &user, tokens, nil
}

// Login authenticates a user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("user lookup failed")
		}
		return nil, nil, ErrInvalidCredentials
	}
	if !row.PasswordHash.Valid {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(row.PasswordHash.String, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user := toUser(row)
	if err := s.users.UpdateLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("update last login failed")
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return &user, tokens, nil
}

// Logout revokes the refresh token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", claims.UserID.String()).Msg("user logged out")
	return nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	row, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.generateTokenPair(toUser(row))
}

// Me loads the current account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user := toUser(row)
	return &user, nil
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// FindOrCreateOAuthUser signs in the account owning info.Email, creating it on first use.
func (s *Service) FindOrCreateOAuthUser(ctx context.Context, provider string, info *OAuthUserInfo) (*User, *TokenPair, error) {
	email, err := normalizeEmail(info.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("OAuth provider did not return email")
	}

	row, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		_ = s.users.UpdateLogin(ctx, row.ID())
	case errors.Is(err, repository.ErrUserNotFound):
		displayName := info.Name
		if displayName == "" {
			displayName = email
		}
		row, err = s.users.Create(ctx, repository.CreateUserParams{
			Email:        email,
			DisplayName:  displayName,
			AuthProvider: provider,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create OAuth user: %w", err)
		}
		s.logger.Info().Str("user_id", row.ID().String()).Str("provider", provider).Msg("OAuth user created")
	default:
		return nil, nil, fmt.Errorf("lookup OAuth user: %w", err)
	}

	user := toUser(row)
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID.String()).Str("provider", provider).Msg("OAuth user logged in")
	return &user, tokens, nil
}

func (s *Service) revoke(ctx context.Context, claims *jwt.Claims) error {
	if s.redis == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revokedKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Service) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

func (s *Service) generateTokenPair(user User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func toUser(row repository.User) User {
	return User{
		ID:          row.ID(),
		Email:       row.Email.String,
		DisplayName: row.DisplayName,
		Provider:    row.AuthProvider,
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
