package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gokatarajesh/trivia-quiz/internal/question/external"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

type questionFetcher interface {
	Fetch(ctx context.Context, r external.Request) ([]external.OpenTDBQuestion, error)
}

// Source serves quiz batches from the Open Trivia DB.
type Source struct {
	client  questionFetcher
	timeout time.Duration
}

var _ quiz.QuestionSource = (*Source)(nil)

func NewSource(client questionFetcher, timeout time.Duration) *Source {
	return &Source{client: client, timeout: timeout}
}

// Fetch issues a single request; filters are forwarded as given.
func (s *Source) Fetch(ctx context.Context, cfg quiz.Configuration) ([]quiz.Question, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.client.Fetch(ctx, external.Request{
		Amount:     cfg.QuestionCount,
		Category:   cfg.Category,
		Difficulty: cfg.Difficulty,
		Type:       cfg.Type,
	})
	if err != nil {
		var codeErr *external.ResponseCodeError
		if errors.As(err, &codeErr) {
			return nil, fmt.Errorf("%w: %v", quiz.ErrNoQuestionsAvailable, err)
		}
		return nil, fmt.Errorf("%w: %v", quiz.ErrTransport, err)
	}
	if len(results) == 0 {
		return nil, quiz.ErrNoQuestionsAvailable
	}

	questions := make([]quiz.Question, 0, len(results))
	for _, q := range results {
		questions = append(questions, normalizeOpenTDB(q))
	}
	return questions, nil
}

// Text stays HTML-entity encoded as delivered.
func normalizeOpenTDB(q external.OpenTDBQuestion) quiz.Question {
	incorrect := make([]string, len(q.IncorrectAnswers))
	copy(incorrect, q.IncorrectAnswers)
	return quiz.Question{
		Category:         q.Category,
		Type:             q.Type,
		Difficulty:       q.Difficulty,
		Prompt:           q.Question,
		CorrectAnswer:    q.CorrectAnswer,
		IncorrectAnswers: incorrect,
	}
}
