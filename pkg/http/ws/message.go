package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeStartQuiz    = "start_quiz"
	TypeResumeQuiz   = "resume_quiz"
	TypeSubmitAnswer = "submit_answer"
	TypePing         = "ping"

	// Server -> Client
	TypeQuestion     = "question"
	TypeTick         = "tick"
	TypeAnswerAck    = "answer_ack"
	TypeQuizComplete = "quiz_complete"
	TypeNoSession    = "no_session"
	TypeError        = "error"
	TypePong         = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a Message. A nil payload is omitted.
func NewMessage(msgType string, payload any) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the payload into v. An empty payload leaves v unchanged.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// Client Messages (incoming)

// StartQuizPayload mirrors the quiz settings form.
type StartQuizPayload struct {
	Amount          int    `json:"amount"`
	Category        string `json:"category"`
	Difficulty      string `json:"difficulty"`
	Type            string `json:"type"`
	TimePerQuestion int    `json:"timePerQuestion"`
}

// SubmitAnswerPayload answers the question at QuestionIndex. A stale index is ignored.
type SubmitAnswerPayload struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
}

// Server Messages (outgoing)

type QuestionPayload struct {
	Index              int      `json:"index"`
	Total              int      `json:"total"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	Difficulty         string   `json:"difficulty"`
	Prompt             string   `json:"prompt"`
	Choices            []string `json:"choices"`
	SecondsPerQuestion int      `json:"seconds_per_question"`
	SecondsRemaining   int      `json:"seconds_remaining"`
}

type TickPayload struct {
	QuestionIndex    int `json:"question_index"`
	RemainingSeconds int `json:"remaining_seconds"`
}

type AnswerAckPayload struct {
	QuestionIndex int  `json:"question_index"`
	Accepted      bool `json:"accepted"`
	TimedOut      int  `json:"timed_out"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
