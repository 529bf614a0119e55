package quiz

import (
	"time"
)

// Storage keys for the two per-profile slots.
const (
	KeyUnfinished = "unfinishedQuiz"
	KeyResults    = "quizResults"
)

// Question types as reported by Open Trivia DB.
const (
	TypeMultiple = "multiple"
	TypeBoolean  = "boolean"
)

// Difficulty values accepted by the question source.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 50

	DefaultQuestionCount      = 5
	DefaultSecondsPerQuestion = 10
)

// Configuration is captured once when a quiz starts and never changes afterwards.
// Category, Difficulty and Type are free-form filters; empty means "any".
type Configuration struct {
	QuestionCount      int    `json:"amount"`
	Category           string `json:"category"`
	Difficulty         string `json:"difficulty"`
	Type               string `json:"type"`
	SecondsPerQuestion int    `json:"timePerQuestion"`
}

// Question is a trivia record exactly as fetched. Prompt and answers may carry
// HTML entities; they are compared verbatim.
type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// AnsweredQuestion records one answer. A nil UserAnswer means the countdown ran out.
type AnsweredQuestion struct {
	Question     Question `json:"question"`
	UserAnswer   *string  `json:"userAnswer"`
	SecondsTaken int      `json:"timeTaken"`
}

// Correct reports whether the stored answer matches the correct answer.
func (a AnsweredQuestion) Correct() bool {
	return a.UserAnswer != nil && *a.UserAnswer == a.Question.CorrectAnswer
}

// TimedOut reports whether no answer was given.
func (a AnsweredQuestion) TimedOut() bool {
	return a.UserAnswer == nil
}

// Session is the unit of persistence while a quiz is in progress.
// len(Answers) == CurrentIndex always holds.
type Session struct {
	Questions          []Question         `json:"questions"`
	CurrentIndex       int                `json:"currentQuestion"`
	Answers            []AnsweredQuestion `json:"answers"`
	SecondsPerQuestion int                `json:"timePerQuestion"`
	StartedAt          int64              `json:"startTime"`
	Configuration      Configuration      `json:"settings"`
}

// StartedTime returns StartedAt as a time.Time.
func (s *Session) StartedTime() time.Time {
	return time.UnixMilli(s.StartedAt)
}

// Complete reports whether every question has been answered.
func (s *Session) Complete() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// Current returns the question at CurrentIndex.
func (s *Session) Current() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

func (s *Session) valid() bool {
	if len(s.Questions) == 0 || s.SecondsPerQuestion <= 0 {
		return false
	}
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.Questions) {
		return false
	}
	return len(s.Answers) == s.CurrentIndex
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Answers = make([]AnsweredQuestion, len(s.Answers), len(s.Answers)+1)
	copy(cp.Answers, s.Answers)
	return &cp
}

// Result is a completed session, kept read-only for scoring and review.
type Result struct {
	Session
}

// Score is derived from a Result on demand and never persisted.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Score counts answers whose text equals the correct answer exactly.
func (r *Result) Score() Score {
	score := Score{Total: len(r.Answers)}
	for _, a := range r.Answers {
		if a.Correct() {
			score.Correct++
		}
	}
	return score
}

// Presentation is what a front-end renders for the current question.
type Presentation struct {
	Index              int      `json:"index"`
	Total              int      `json:"total"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	Difficulty         string   `json:"difficulty"`
	Prompt             string   `json:"prompt"`
	Choices            []string `json:"choices"`
	SecondsPerQuestion int      `json:"seconds_per_question"`
}
