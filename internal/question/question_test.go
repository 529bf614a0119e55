package question

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-quiz/internal/question/external"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

type stubFetcher struct {
	got       external.Request
	questions []external.OpenTDBQuestion
	err       error
}

func (s *stubFetcher) Fetch(_ context.Context, r external.Request) ([]external.OpenTDBQuestion, error) {
	s.got = r
	return s.questions, s.err
}

type stubLister struct {
	calls atomic.Int32
	cats  []external.Category
	err   error
}

func (s *stubLister) Categories(context.Context) ([]external.Category, error) {
	s.calls.Add(1)
	return s.cats, s.err
}

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour), mr
}

func TestSourceForwardsFiltersAndNormalizes(t *testing.T) {
	fetcher := &stubFetcher{questions: []external.OpenTDBQuestion{{
		Category:         "Science: Computers",
		Type:             "multiple",
		Difficulty:       "easy",
		Question:         "What does &quot;HTTP&quot; stand for?",
		CorrectAnswer:    "HyperText Transfer Protocol",
		IncorrectAnswers: []string{"A", "B", "C"},
	}}}
	src := NewSource(fetcher, time.Second)

	qs, err := src.Fetch(context.Background(), quiz.Configuration{QuestionCount: 3, Category: "18", Difficulty: "easy", Type: "multiple"})
	require.NoError(t, err)
	assert.Equal(t, external.Request{Amount: 3, Category: "18", Difficulty: "easy", Type: "multiple"}, fetcher.got)
	require.Len(t, qs, 1)
	assert.Equal(t, "What does &quot;HTTP&quot; stand for?", qs[0].Prompt, "entities are kept verbatim")
	assert.Equal(t, "HyperText Transfer Protocol", qs[0].CorrectAnswer)
	assert.Equal(t, []string{"A", "B", "C"}, qs[0].IncorrectAnswers)
}

func TestSourceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"response code", &external.ResponseCodeError{Code: external.CodeNoResults}, quiz.ErrNoQuestionsAvailable},
		{"invalid parameter", &external.ResponseCodeError{Code: external.CodeInvalidParameter}, quiz.ErrNoQuestionsAvailable},
		{"network", errors.New("connection refused"), quiz.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSource(&stubFetcher{err: tc.err}, 0).Fetch(context.Background(), quiz.Configuration{QuestionCount: 1})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := NewSource(&stubFetcher{}, 0).Fetch(context.Background(), quiz.Configuration{QuestionCount: 1})
	assert.ErrorIs(t, err, quiz.ErrNoQuestionsAvailable)
}

func TestSourceAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"category":"Geography","type":"boolean","difficulty":"medium","question":"Is Canberra the capital of Australia?","correct_answer":"True","incorrect_answers":["False"]}]}`))
	}))
	defer srv.Close()

	src := NewSource(external.NewOpenTDBClient(srv.URL, srv.Client()), time.Second)
	qs, err := src.Fetch(context.Background(), quiz.Configuration{QuestionCount: 1, Type: "boolean"})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, quiz.TypeBoolean, qs[0].Type)
}

func TestCatalogFallsBackToStatic(t *testing.T) {
	catalog := NewCatalog(&stubLister{err: errors.New("down")}, nil, zerolog.Nop())
	cats := catalog.Categories(context.Background())
	assert.Equal(t, StaticCategories, cats)

	cats[0].Name = "mutated"
	assert.Equal(t, "Any", StaticCategories[0].Name)

	assert.Equal(t, StaticCategories, NewCatalog(nil, nil, zerolog.Nop()).Categories(context.Background()))
}

func TestCatalogLiveListIsCached(t *testing.T) {
	cache, mr := newRedisCache(t)
	lister := &stubLister{cats: []external.Category{{ID: 22, Name: "Geography"}, {ID: 9, Name: "General Knowledge"}}}
	catalog := NewCatalog(lister, cache, zerolog.Nop())

	want := []Category{AnyCategory, {ID: "9", Name: "General Knowledge"}, {ID: "22", Name: "Geography"}}
	assert.Equal(t, want, catalog.Categories(context.Background()))
	assert.Equal(t, want, catalog.Categories(context.Background()))
	assert.EqualValues(t, 1, lister.calls.Load())
	assert.True(t, mr.Exists(categoriesKey))
	assert.Equal(t, time.Hour, mr.TTL(categoriesKey))

	cat, ok := catalog.Lookup(context.Background(), "22")
	require.True(t, ok)
	assert.Equal(t, "Geography", cat.Name)
	_, ok = catalog.Lookup(context.Background(), "99")
	assert.False(t, ok)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newRedisCache(t)
	cats, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cats)
}

func TestCategoryRefresherWarmsCache(t *testing.T) {
	cache, _ := newRedisCache(t)
	lister := &stubLister{cats: []external.Category{{ID: 9, Name: "General Knowledge"}}}
	w := NewCategoryRefresher(NewCatalog(lister, cache, zerolog.Nop()), time.Hour, time.Second, zerolog.Nop())

	go w.Run()
	require.Eventually(t, func() bool {
		cats, err := cache.Get(context.Background())
		return err == nil && len(cats) == 2
	}, time.Second, 10*time.Millisecond)
	w.Stop()
	assert.EqualValues(t, 1, lister.calls.Load())
}

func TestCategoriesHandler(t *testing.T) {
	catalog := NewCatalog(nil, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	CategoriesHandler(catalog).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body CategoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StaticCategories, body.Categories)
}
