package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/metrics"
)

// Options tunes a Lifecycle. Zero values select defaults.
type Options struct {
	DefaultSecondsPerQuestion int
	Now                       func() time.Time
	Shuffler                  Shuffler
}

// Lifecycle owns the quiz state machine for one profile:
// NotStarted -> InProgress(i) -> Complete. Only InProgress survives a restart,
// via the KeyUnfinished slot; Complete survives as the KeyResults slot.
type Lifecycle struct {
	store          Store
	source         QuestionSource
	logger         zerolog.Logger
	now            func() time.Time
	shuffler       Shuffler
	defaultSeconds int
}

// NewLifecycle builds a lifecycle over a profile's store.
func NewLifecycle(store Store, source QuestionSource, logger zerolog.Logger, opts Options) *Lifecycle {
	if opts.DefaultSecondsPerQuestion <= 0 {
		opts.DefaultSecondsPerQuestion = DefaultSecondsPerQuestion
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Lifecycle{
		store:          store,
		source:         source,
		logger:         logger,
		now:            opts.Now,
		shuffler:       opts.Shuffler,
		defaultSeconds: opts.DefaultSecondsPerQuestion,
	}
}

// Normalize clamps the question count and fills a missing countdown length.
func (l *Lifecycle) Normalize(cfg Configuration) Configuration {
	switch {
	case cfg.QuestionCount < MinQuestionCount:
		cfg.QuestionCount = MinQuestionCount
	case cfg.QuestionCount > MaxQuestionCount:
		cfg.QuestionCount = MaxQuestionCount
	}
	if cfg.SecondsPerQuestion <= 0 {
		cfg.SecondsPerQuestion = l.defaultSeconds
	}
	return cfg
}

// Start fetches questions and persists a fresh session, replacing any
// in-progress one. On failure nothing is written.
func (l *Lifecycle) Start(ctx context.Context, cfg Configuration) (*Session, error) {
	session, err := l.Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := l.Begin(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Prepare fetches questions and builds a fresh session without storing it.
func (l *Lifecycle) Prepare(ctx context.Context, cfg Configuration) (*Session, error) {
	cfg = l.Normalize(cfg)

	questions, err := l.source.Fetch(ctx, cfg)
	if err != nil {
		if errors.Is(err, ErrNoQuestionsAvailable) {
			metrics.FetchFailed(metrics.FetchNoQuestions)
			l.logger.Info().Err(err).Int("amount", cfg.QuestionCount).Msg("no questions for settings")
			return nil, err
		}
		metrics.FetchFailed(metrics.FetchTransport)
		l.logger.Warn().Err(err).Msg("question fetch failed")
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return nil, err
	}
	if len(questions) == 0 {
		metrics.FetchFailed(metrics.FetchNoQuestions)
		return nil, ErrNoQuestionsAvailable
	}
	if len(questions) > cfg.QuestionCount {
		questions = questions[:cfg.QuestionCount]
	}

	session := &Session{
		Questions:          questions,
		CurrentIndex:       0,
		Answers:            make([]AnsweredQuestion, 0, len(questions)),
		SecondsPerQuestion: cfg.SecondsPerQuestion,
		StartedAt:          l.now().UnixMilli(),
		Configuration:      cfg,
	}
	return session, nil
}

// Begin stores a prepared session in the in-progress slot, replacing any
// previous one.
func (l *Lifecycle) Begin(ctx context.Context, session *Session) error {
	if err := l.write(ctx, KeyUnfinished, session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	metrics.QuizStarted()
	l.logger.Info().
		Int("questions", len(session.Questions)).
		Int("seconds_per_question", session.SecondsPerQuestion).
		Msg("quiz started")
	return nil
}

// Resume returns the stored in-progress session unchanged, or nil when the slot
// is empty. Unparsable or inconsistent data counts as empty.
func (l *Lifecycle) Resume(ctx context.Context) (*Session, error) {
	data, err := l.store.Get(ctx, KeyUnfinished)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		l.logger.Warn().Err(err).Msg("discarding unreadable session")
		return nil, nil
	}
	if !session.valid() || session.Complete() {
		l.logger.Warn().Int("index", session.CurrentIndex).Int("answers", len(session.Answers)).Msg("discarding inconsistent session")
		return nil, nil
	}
	return &session, nil
}

// SubmitAnswer records an answer (nil for a timeout) for the current question
// and advances. secondsRemaining is the countdown value at submission. The
// returned bool reports completion; a completed session has been moved from
// the in-progress slot to the result slot. The input session is not modified.
func (l *Lifecycle) SubmitAnswer(ctx context.Context, session *Session, answer *string, secondsRemaining int) (*Session, bool, error) {
	if session == nil {
		return nil, false, ErrSessionComplete
	}
	question, ok := session.Current()
	if !ok {
		return nil, false, ErrSessionComplete
	}

	taken := session.SecondsPerQuestion - secondsRemaining
	if taken < 0 {
		taken = 0
	}
	if taken > session.SecondsPerQuestion {
		taken = session.SecondsPerQuestion
	}

	var recorded *string
	if answer != nil {
		text := *answer
		recorded = &text
	}
	answered := AnsweredQuestion{
		Question:     question,
		UserAnswer:   recorded,
		SecondsTaken: taken,
	}

	next := session.clone()
	next.Answers = append(next.Answers, answered)
	next.CurrentIndex++

	if next.Complete() {
		if err := l.finish(ctx, next); err != nil {
			return nil, false, err
		}
		recordOutcome(answered)
		metrics.QuizCompleted()
		score := (&Result{Session: *next}).Score()
		l.logger.Info().Int("correct", score.Correct).Int("total", score.Total).Msg("quiz complete")
		return next, true, nil
	}

	if err := l.write(ctx, KeyUnfinished, next); err != nil {
		return nil, false, fmt.Errorf("persist session: %w", err)
	}
	recordOutcome(answered)
	return next, false, nil
}

// LatestResult returns the most recent completed quiz, or nil if none is stored.
func (l *Lifecycle) LatestResult(ctx context.Context) (*Result, error) {
	data, err := l.store.Get(ctx, KeyResults)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result.Session); err != nil {
		l.logger.Warn().Err(err).Msg("discarding unreadable result")
		return nil, nil
	}
	if len(result.Questions) == 0 || len(result.Answers) != len(result.Questions) {
		return nil, nil
	}
	return &result, nil
}

// Present projects the session's current question with freshly ordered choices.
func (l *Lifecycle) Present(session *Session) (Presentation, bool) {
	return PresentCurrentQuestion(session, l.shuffler)
}

func (l *Lifecycle) finish(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if swapper, ok := l.store.(Swapper); ok {
		if err := swapper.Swap(ctx, KeyUnfinished, KeyResults, data); err != nil {
			return fmt.Errorf("store result: %w", err)
		}
		return nil
	}
	if err := l.store.Delete(ctx, KeyUnfinished); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if err := l.store.Set(ctx, KeyResults, data); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

func (l *Lifecycle) write(ctx context.Context, key string, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, key, data)
}

func recordOutcome(a AnsweredQuestion) {
	switch {
	case a.TimedOut():
		metrics.AnswerRecorded(metrics.OutcomeTimeout)
	case a.Correct():
		metrics.AnswerRecorded(metrics.OutcomeCorrect)
	default:
		metrics.AnswerRecorded(metrics.OutcomeIncorrect)
	}
}
