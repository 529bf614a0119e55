package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBuildsQueryAndDecodes(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"category":"History","type":"boolean","difficulty":"easy","question":"Rome fell in 476 AD.","correct_answer":"True","incorrect_answers":["False"]}]}`))
	}))
	defer srv.Close()

	client := NewOpenTDBClient(srv.URL+"/", nil)
	qs, err := client.Fetch(context.Background(), Request{Amount: 1, Category: "23", Difficulty: "easy", Type: "boolean"})
	require.NoError(t, err)

	assert.Equal(t, "amount=1&category=23&difficulty=easy&type=boolean", gotQuery)
	require.Len(t, qs, 1)
	assert.Equal(t, "True", qs[0].CorrectAnswer)
	assert.Equal(t, []string{"False"}, qs[0].IncorrectAnswers)
}

func TestFetchOmitsEmptyFilters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"response_code":0,"results":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, nil).Fetch(context.Background(), Request{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, "amount=5", gotQuery)
}

func TestFetchResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, nil).Fetch(context.Background(), Request{Amount: 50, Category: "30", Difficulty: "hard"})
	var codeErr *ResponseCodeError
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, CodeNoResults, codeErr.Code)
	assert.Contains(t, err.Error(), "not enough questions")
}

func TestFetchTransportFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewOpenTDBClient(srv.URL, nil).Fetch(context.Background(), Request{Amount: 1})
		require.Error(t, err)
		var codeErr *ResponseCodeError
		assert.False(t, errors.As(err, &codeErr))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer srv.Close()

		client := NewOpenTDBClient(srv.URL, &http.Client{Timeout: 10 * time.Millisecond})
		_, err := client.Fetch(context.Background(), Request{Amount: 1})
		assert.Error(t, err)
	})

	t.Run("bad body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewOpenTDBClient(srv.URL, nil).Fetch(context.Background(), Request{Amount: 1})
		assert.ErrorContains(t, err, "decode")
	})
}

func TestCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api_category.php", r.URL.Path)
		_, _ = w.Write([]byte(`{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":22,"name":"Geography"}]}`))
	}))
	defer srv.Close()

	cats, err := NewOpenTDBClient(srv.URL, nil).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 9, Name: "General Knowledge"}, {ID: 22, Name: "Geography"}}, cats)
}
