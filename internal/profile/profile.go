// Package profile scopes quiz state to one browser or signed-in account.
package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gokatarajesh/trivia-quiz/internal/auth"
	httperrors "github.com/gokatarajesh/trivia-quiz/pkg/http/errors"
)

const (
	CookieName = "trivia_profile"
	HeaderName = "X-Profile-ID"
	// QueryParam lets WebSocket clients that cannot set headers name a profile.
	QueryParam = "profile"

	cookieMaxAge = 365 * 24 * 60 * 60
)

type profileKey struct{}

// FromContext returns the profile ID resolved by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileKey{}).(string)
	return id, ok && id != ""
}

// WithID stores a profile ID on ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, profileKey{}, id)
}

// Middleware resolves the caller's profile: a signed-in user's ID, then the
// X-Profile-ID header, the profile query parameter, the cookie, and finally a
// freshly minted ID that is set as a cookie. Must run after auth.AuthMiddleware.
func Middleware(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolve(r)
			if err != nil {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidProfile, err.Error())
				return
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

type invalidProfileError string

func (e invalidProfileError) Error() string { return "invalid profile id in " + string(e) }

func resolve(r *http.Request) (string, error) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.UserID.String(), nil
	}
	if v := strings.TrimSpace(r.Header.Get(HeaderName)); v != "" {
		return canonical(v, HeaderName)
	}
	if v := r.URL.Query().Get(QueryParam); v != "" {
		return canonical(v, "query")
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		id, err := canonical(c.Value, "cookie")
		if err != nil {
			// A mangled cookie is replaced rather than rejected.
			return "", nil
		}
		return id, nil
	}
	return "", nil
}

func canonical(raw, source string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", invalidProfileError(source)
	}
	return id.String(), nil
}
