package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Answer outcomes.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeTimeout   = "timeout"
)

// Fetch failure kinds.
const (
	FetchNoQuestions = "no_questions"
	FetchTransport   = "transport"
)

var (
	quizzesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "quizzes_started_total",
		Help:      "Quiz sessions created after a successful question fetch.",
	})
	quizzesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "quizzes_completed_total",
		Help:      "Quiz sessions converted into a result.",
	})
	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "question_fetch_failures_total",
		Help:      "Failed question fetches by kind.",
	}, []string{"kind"})
	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "answers_total",
		Help:      "Recorded answers by outcome.",
	}, []string{"outcome"})
	activePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trivia",
		Name:      "active_players",
		Help:      "Profiles with a live quiz player in memory.",
	})
	openSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trivia",
		Name:      "open_sockets",
		Help:      "Live quiz WebSocket connections.",
	})
)

func QuizStarted()   { quizzesStarted.Inc() }
func QuizCompleted() { quizzesCompleted.Inc() }

// FetchFailed counts a failed fetch; kind is FetchNoQuestions or FetchTransport.
func FetchFailed(kind string) { fetchFailures.WithLabelValues(kind).Inc() }

// AnswerRecorded counts one answer by outcome.
func AnswerRecorded(outcome string) { answers.WithLabelValues(outcome).Inc() }

// SetActivePlayers reports the size of the player registry.
func SetActivePlayers(n int) { activePlayers.Set(float64(n)) }

// SetOpenSockets reports the number of live quiz sockets.
func SetOpenSockets(n int) { openSockets.Set(float64(n)) }
