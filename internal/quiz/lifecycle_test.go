package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz/store"
)

type stubSource struct {
	questions []quiz.Question
	err       error
	calls     int
	last      quiz.Configuration
}

func (s *stubSource) Fetch(_ context.Context, cfg quiz.Configuration) ([]quiz.Question, error) {
	s.calls++
	s.last = cfg
	if s.err != nil {
		return nil, s.err
	}
	n := cfg.QuestionCount
	if n > len(s.questions) {
		n = len(s.questions)
	}
	return s.questions[:n], nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func strPtr(s string) *string { return &s }

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{
			Category:         "Science: Computers",
			Type:             quiz.TypeMultiple,
			Difficulty:       quiz.DifficultyEasy,
			Prompt:           "What does CPU stand for?",
			CorrectAnswer:    "Central Processing Unit",
			IncorrectAnswers: []string{"Central Process Unit", "Computer Personal Unit", "Central Processor Unit"},
		},
		{
			Category:         "General Knowledge",
			Type:             quiz.TypeBoolean,
			Difficulty:       quiz.DifficultyMedium,
			Prompt:           "The Great Wall of China is visible from the Moon.",
			CorrectAnswer:    "False",
			IncorrectAnswers: []string{"True"},
		},
		{
			Category:         "Geography",
			Type:             quiz.TypeMultiple,
			Difficulty:       quiz.DifficultyHard,
			Prompt:           "What is the capital of Australia?",
			CorrectAnswer:    "Canberra",
			IncorrectAnswers: []string{"Sydney", "Melbourne", "Perth"},
		},
	}
}

func newLifecycle(st quiz.Store, src quiz.QuestionSource, clock *fakeClock) *quiz.Lifecycle {
	return quiz.NewLifecycle(st, src, zerolog.Nop(), quiz.Options{Now: clock.Now})
}

func TestStartPersistsFreshSession(t *testing.T) {
	st := store.NewMemory()
	src := &stubSource{questions: sampleQuestions()}
	clock := newClock()
	lc := newLifecycle(st, src, clock)

	session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 2, SecondsPerQuestion: 15})
	require.NoError(t, err)

	assert.Len(t, session.Questions, 2)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Empty(t, session.Answers)
	assert.Equal(t, 15, session.SecondsPerQuestion)
	assert.Equal(t, clock.Now().UnixMilli(), session.StartedAt)
	assert.True(t, st.Has(quiz.KeyUnfinished))

	resumed, err := lc.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Questions, resumed.Questions)
}

func TestStartClampsQuestionCount(t *testing.T) {
	src := &stubSource{questions: sampleQuestions()}
	lc := newLifecycle(store.NewMemory(), src, newClock())

	_, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, src.last.QuestionCount)
	assert.Equal(t, quiz.DefaultSecondsPerQuestion, src.last.SecondsPerQuestion)

	_, err = lc.Start(context.Background(), quiz.Configuration{QuestionCount: 99, SecondsPerQuestion: 5})
	require.NoError(t, err)
	assert.Equal(t, 50, src.last.QuestionCount)
}

func TestStartForwardsFiltersVerbatim(t *testing.T) {
	src := &stubSource{questions: sampleQuestions()}
	lc := newLifecycle(store.NewMemory(), src, newClock())

	cfg := quiz.Configuration{QuestionCount: 3, Category: "22", Difficulty: "hard", Type: "multiple", SecondsPerQuestion: 20}
	_, err := lc.Start(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, src.last)
}

func TestStartFailuresLeaveExistingSessionUntouched(t *testing.T) {
	cases := []struct {
		name    string
		source  *stubSource
		wantErr error
	}{
		{"response code", &stubSource{err: quiz.ErrNoQuestionsAvailable}, quiz.ErrNoQuestionsAvailable},
		{"empty batch", &stubSource{}, quiz.ErrNoQuestionsAvailable},
		{"transport", &stubSource{err: errors.New("dial tcp: connection refused")}, quiz.ErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemory()
			previous := []byte(`{"questions":[{"question":"old"}],"currentQuestion":0,"answers":[],"timePerQuestion":10}`)
			require.NoError(t, st.Set(context.Background(), quiz.KeyUnfinished, previous))

			lc := newLifecycle(st, tc.source, newClock())
			session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 2})

			assert.Nil(t, session)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr == quiz.ErrTransport {
				assert.NotErrorIs(t, err, quiz.ErrNoQuestionsAvailable)
			}
			stored, err := st.Get(context.Background(), quiz.KeyUnfinished)
			require.NoError(t, err)
			assert.JSONEq(t, string(previous), string(stored))
			assert.Equal(t, 1, tc.source.calls)
		})
	}
}

func TestPrepareWritesNothingUntilBegin(t *testing.T) {
	st := store.NewMemory()
	lc := newLifecycle(st, &stubSource{questions: sampleQuestions()}, newClock())

	session, err := lc.Prepare(context.Background(), quiz.Configuration{QuestionCount: 2})
	require.NoError(t, err)
	assert.Len(t, session.Questions, 2)
	assert.False(t, st.Has(quiz.KeyUnfinished))

	require.NoError(t, lc.Begin(context.Background(), session))
	resumed, err := lc.Resume(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resumed)
	assert.Equal(t, session.StartedAt, resumed.StartedAt)
}

func TestSubmitAnswerAdvancesOneStep(t *testing.T) {
	st := store.NewMemory()
	lc := newLifecycle(st, &stubSource{questions: sampleQuestions()}, newClock())

	session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 3, SecondsPerQuestion: 10})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.Equal(t, len(session.Answers), session.CurrentIndex)
		next, complete, err := lc.SubmitAnswer(context.Background(), session, strPtr("x"), 7)
		require.NoError(t, err)
		assert.False(t, complete)
		assert.Equal(t, session.CurrentIndex+1, next.CurrentIndex)
		assert.Len(t, next.Answers, len(session.Answers)+1)
		assert.Equal(t, session.Questions[session.CurrentIndex], next.Answers[i].Question)
		assert.Equal(t, 3, next.Answers[i].SecondsTaken)
		assert.Len(t, session.Answers, i, "input session must not be modified")
		session = next
	}

	stored, err := lc.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentIndex)
	assert.Len(t, stored.Answers, 2)
}

func TestSubmitAnswerClampsSecondsTaken(t *testing.T) {
	lc := newLifecycle(store.NewMemory(), &stubSource{questions: sampleQuestions()}, newClock())
	session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 3, SecondsPerQuestion: 10})
	require.NoError(t, err)

	next, _, err := lc.SubmitAnswer(context.Background(), session, strPtr("a"), 25)
	require.NoError(t, err)
	assert.Equal(t, 0, next.Answers[0].SecondsTaken)
}

func TestSubmitTimeoutRecordsFullCountdown(t *testing.T) {
	lc := newLifecycle(store.NewMemory(), &stubSource{questions: sampleQuestions()}, newClock())
	session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 3, SecondsPerQuestion: 12})
	require.NoError(t, err)

	next, _, err := lc.SubmitAnswer(context.Background(), session, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, next.Answers[0].UserAnswer)
	assert.True(t, next.Answers[0].TimedOut())
	assert.Equal(t, 12, next.Answers[0].SecondsTaken)

	raw, err := json.Marshal(next.Answers[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userAnswer":null`)
}

func TestCompletionMovesSessionToResult(t *testing.T) {
	st := store.NewMemory()
	lc := newLifecycle(st, &stubSource{questions: sampleQuestions()}, newClock())

	require.NoError(t, st.Set(context.Background(), quiz.KeyResults, []byte(`{"stale":true}`)))

	session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 1})
	require.NoError(t, err)
	assert.True(t, st.Has(quiz.KeyUnfinished))

	final, complete, err := lc.SubmitAnswer(context.Background(), session, strPtr("Central Processing Unit"), 4)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.True(t, final.Complete())
	assert.False(t, st.Has(quiz.KeyUnfinished))

	result, err := lc.LatestResult(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Answers, len(result.Questions))

	_, _, err = lc.SubmitAnswer(context.Background(), final, strPtr("again"), 0)
	assert.ErrorIs(t, err, quiz.ErrSessionComplete)
}

func TestEndToEndTwoQuestions(t *testing.T) {
	st := store.NewMemory()
	lc := newLifecycle(st, &stubSource{questions: sampleQuestions()}, newClock())

	session, err := lc.Start(context.Background(), quiz.Configuration{
		QuestionCount:      2,
		Category:           "",
		Difficulty:         "",
		Type:               "",
		SecondsPerQuestion: 10,
	})
	require.NoError(t, err)

	session, complete, err := lc.SubmitAnswer(context.Background(), session, strPtr("Central Processing Unit"), 6)
	require.NoError(t, err)
	require.False(t, complete)

	_, complete, err = lc.SubmitAnswer(context.Background(), session, nil, 0)
	require.NoError(t, err)
	require.True(t, complete)

	result, err := lc.LatestResult(context.Background())
	require.NoError(t, err)
	score := result.Score()
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 2, score.Total)

	inProgress, err := lc.Resume(context.Background())
	require.NoError(t, err)
	assert.Nil(t, inProgress)
	assert.False(t, st.Has(quiz.KeyUnfinished))
}

func TestResumeTreatsBadDataAsAbsent(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"questions":`,
		"index mismatch":   `{"questions":[{"question":"q"}],"currentQuestion":1,"answers":[],"timePerQuestion":10}`,
		"no questions":     `{"questions":[],"currentQuestion":0,"answers":[],"timePerQuestion":10}`,
		"already complete": `{"questions":[{"question":"q"}],"currentQuestion":1,"answers":[{"question":{"question":"q"},"userAnswer":null,"timeTaken":10}],"timePerQuestion":10}`,
		"no countdown":     `{"questions":[{"question":"q"}],"currentQuestion":0,"answers":[],"timePerQuestion":0}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			st := store.NewMemory()
			require.NoError(t, st.Set(context.Background(), quiz.KeyUnfinished, []byte(raw)))
			lc := newLifecycle(st, &stubSource{}, newClock())

			session, err := lc.Resume(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, session)
		})
	}
}

func TestResumeAbsent(t *testing.T) {
	lc := newLifecycle(store.NewMemory(), &stubSource{}, newClock())
	session, err := lc.Resume(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, session)

	result, err := lc.LatestResult(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestLatestResultIgnoresCorruptData(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(context.Background(), quiz.KeyResults, []byte("not json")))
	lc := newLifecycle(st, &stubSource{}, newClock())

	result, err := lc.LatestResult(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestNewQuizOverwritesPreviousResult(t *testing.T) {
	st := store.NewMemory()
	lc := newLifecycle(st, &stubSource{questions: sampleQuestions()}, newClock())

	for _, answer := range []string{"Central Processing Unit", "wrong"} {
		session, err := lc.Start(context.Background(), quiz.Configuration{QuestionCount: 1})
		require.NoError(t, err)
		_, complete, err := lc.SubmitAnswer(context.Background(), session, strPtr(answer), 1)
		require.NoError(t, err)
		require.True(t, complete)
	}

	result, err := lc.LatestResult(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score().Correct)
}
