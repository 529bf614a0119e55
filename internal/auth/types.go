package auth

import (
	"github.com/google/uuid"
)

// Auth providers recorded on the user row.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// OAuthProviderGoogle is the only supported OAuth provider.
const OAuthProviderGoogle = ProviderGoogle

// User is the public view of an account.
type User struct {
	ID          uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Provider    string    `json:"provider"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest for email/password sign-up.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest for email/password sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
