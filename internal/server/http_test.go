package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-quiz/internal/config"
	"github.com/gokatarajesh/trivia-quiz/internal/profile"
	"github.com/gokatarajesh/trivia-quiz/internal/question"
)

func testConfig() *config.App {
	return &config.App{
		Env:      "test",
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Profile-ID"},
			AllowCredentials: true,
			MaxAge:           600,
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), nil, nil, Handlers{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/quiz", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPingChecksRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewHandler(testConfig(), zerolog.Nop(), nil, rdb, Handlers{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCategoriesRoute(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), nil, nil, Handlers{
		Catalog: question.NewCatalog(nil, nil, zerolog.Nop()),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body question.CategoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Any", body.Categories[0].Name)

	var minted bool
	for _, c := range rec.Result().Cookies() {
		minted = minted || c.Name == profile.CookieName
	}
	assert.True(t, minted, "first visit gets a profile cookie")
}

func TestCORS(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), nil, nil, Handlers{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/quiz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "x-profile-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-profile-id")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(testConfig(), zerolog.New(&buf), nil, nil, Handlers{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(requestIDHeader)
	require.NotEmpty(t, id)
	var entry map[string]any
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "http request", entry["message"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.Equal(t, id, entry["req_id"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
}

func TestInvalidProfileHeader(t *testing.T) {
	h := NewHandler(testConfig(), zerolog.Nop(), nil, nil, Handlers{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(profile.HeaderName, "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
