package play

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixedSource struct {
	mu  sync.Mutex
	err error
}

func (s *fixedSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fixedSource) Fetch(_ context.Context, cfg quiz.Configuration) ([]quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	all := []quiz.Question{
		{
			Category:         "Science: Computers",
			Type:             quiz.TypeMultiple,
			Difficulty:       quiz.DifficultyEasy,
			Prompt:           "What does CPU stand for?",
			CorrectAnswer:    "Central Processing Unit",
			IncorrectAnswers: []string{"Central Process Unit", "Computer Personal Unit", "Central Processor Unit"},
		},
		{
			Category:         "History",
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
	n := cfg.QuestionCount
	if n > len(all) {
		n = len(all)
	}
	return all[:n], nil
}

type fixture struct {
	clock  *clock
	source *fixedSource
	shared *store.Memory
	reg    *Registry
}

func newFixture() *fixture {
	f := &fixture{clock: newClock(), source: &fixedSource{}, shared: store.NewMemory()}
	f.reg = NewRegistry(func(profileID string) *quiz.Lifecycle {
		st := store.Namespace(f.shared, store.ProfilePrefix(profileID))
		return quiz.NewLifecycle(st, f.source, zerolog.Nop(), quiz.Options{Now: f.clock.Now})
	}, time.Minute, zerolog.Nop())
	f.reg.now = f.clock.Now
	return f
}
