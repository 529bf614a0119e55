package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()
	user := User{ID: uuid.New(), Email: "ace@example.com", DisplayName: "Ace"}

	token, err := m.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ace@example.com", claims.Email)
	assert.Equal(t, "trivia-quiz", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := newTestManager()
	refresh, err := m.GenerateRefreshToken(User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestEachTokenHasUniqueID(t *testing.T) {
	m := newTestManager()
	user := User{ID: uuid.New()}
	a, _ := m.GenerateRefreshToken(user)
	b, _ := m.GenerateRefreshToken(user)

	ca, err := m.ValidateRefreshToken(a)
	require.NoError(t, err)
	cb, err := m.ValidateRefreshToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestExpiredToken(t *testing.T) {
	m := newTestManager()
	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, err := m.GenerateAccessToken(User{ID: uuid.New()})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestGarbageToken(t *testing.T) {
	_, err := newTestManager().ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
