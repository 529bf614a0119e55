package play

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/metrics"
	"github.com/gokatarajesh/trivia-quiz/internal/profile"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	httperrors "github.com/gokatarajesh/trivia-quiz/pkg/http/errors"
	"github.com/gokatarajesh/trivia-quiz/pkg/http/ws"
)

const defaultTickInterval = time.Second

// HandlerOptions configures the WebSocket quiz handler.
type HandlerOptions struct {
	// AllowedOrigins lists browser origins allowed to connect. "*" allows any.
	AllowedOrigins []string
	TickInterval   time.Duration
	// Defaults fills settings a start_quiz message leaves out.
	Defaults quiz.Configuration
	// Categories validates start_quiz categories when set.
	Categories CategoryLookup
}

// Handler serves /ws/quiz: one socket per profile, a countdown pushed as
// ticks, and answers submitted as messages.
type Handler struct {
	registry *Registry
	hub      *ws.Hub
	upgrader websocket.Upgrader
	tick       time.Duration
	defaults   quiz.Configuration
	categories CategoryLookup
	logger     zerolog.Logger
}

// NewHandler creates the quiz WebSocket handler.
func NewHandler(registry *Registry, hub *ws.Hub, opts HandlerOptions, logger zerolog.Logger) *Handler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	return &Handler{
		registry: registry,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(opts.AllowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		tick:       opts.TickInterval,
		defaults:   opts.Defaults,
		categories: opts.Categories,
		logger:     logger,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profile.FromContext(r.Context())
	if !ok {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidProfile, "Missing profile")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	logger := h.logger.With().Str("profile_id", profileID).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(profileID, wsConn)
	metrics.SetOpenSockets(h.hub.Count())
	go wsConn.WritePump()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	s := &socket{
		h:         h,
		profileID: profileID,
		conn:      wsConn,
		logger:    logger,
	}
	go s.tickLoop(ctx)

	wsConn.ReadPump(func(msg ws.Message) error {
		return s.handle(ctx, msg)
	})

	h.hub.UnregisterConnection(profileID, wsConn)
	metrics.SetOpenSockets(h.hub.Count())
}

// socket is the per-connection state.
type socket struct {
	h         *Handler
	profileID string
	conn      *ws.Connection
	logger    zerolog.Logger

	mu         sync.Mutex
	player     *quiz.Player
	lastIndex  int
	lastRemain int
}

func (s *socket) setPlayer(p *quiz.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = p
	s.lastIndex, s.lastRemain = -1, -1
}

func (s *socket) currentPlayer() *quiz.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

func (s *socket) handle(ctx context.Context, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartQuiz:
		return s.handleStart(ctx, msg)
	case ws.TypeResumeQuiz:
		return s.handleResume(ctx, msg)
	case ws.TypeSubmitAnswer:
		return s.handleSubmit(ctx, msg)
	case ws.TypePing:
		return s.send(ws.TypePong, nil, msg.RequestID)
	default:
		return s.sendError(msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *socket) handleStart(ctx context.Context, msg ws.Message) error {
	d := s.h.defaults
	req := ws.StartQuizPayload{
		Amount:          d.QuestionCount,
		Category:        d.Category,
		Difficulty:      d.Difficulty,
		Type:            d.Type,
		TimePerQuestion: d.SecondsPerQuestion,
	}
	if err := msg.Decode(&req); err != nil {
		return s.sendError(msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid start_quiz payload")
	}
	if !knownCategory(ctx, s.h.categories, req.Category) {
		return s.sendError(msg.RequestID, httperrors.ErrCodeInvalidCategory, "Unknown category")
	}

	player, err := s.h.registry.Start(ctx, s.profileID, quiz.Configuration{
		QuestionCount:      req.Amount,
		Category:           req.Category,
		Difficulty:         req.Difficulty,
		Type:               req.Type,
		SecondsPerQuestion: req.TimePerQuestion,
	})
	switch {
	case errors.Is(err, quiz.ErrNoQuestionsAvailable):
		return s.sendError(msg.RequestID, httperrors.ErrCodeNoQuestions, "No questions available for these settings. Try different options.")
	case errors.Is(err, quiz.ErrTransport):
		return s.sendError(msg.RequestID, httperrors.ErrCodeUpstreamError, "Failed to fetch questions. Please try again.")
	case err != nil:
		s.logger.Error().Err(err).Msg("start quiz failed")
		return s.sendError(msg.RequestID, httperrors.ErrCodeInternalError, "Failed to start quiz")
	}

	s.setPlayer(player)
	return s.sendState(player, quiz.Outcome{Session: player.Session()}, msg.RequestID)
}

func (s *socket) handleResume(ctx context.Context, msg ws.Message) error {
	player, err := s.h.registry.Current(ctx, s.profileID)
	if err != nil {
		s.logger.Error().Err(err).Msg("resume quiz failed")
		return s.sendError(msg.RequestID, httperrors.ErrCodeInternalError, "Failed to resume quiz")
	}
	if player == nil {
		return s.send(ws.TypeNoSession, nil, msg.RequestID)
	}
	s.setPlayer(player)
	return s.sendState(player, quiz.Outcome{Session: player.Session()}, msg.RequestID)
}

func (s *socket) handleSubmit(ctx context.Context, msg ws.Message) error {
	var req ws.SubmitAnswerPayload
	if err := msg.Decode(&req); err != nil || len(msg.Payload) == 0 {
		return s.sendError(msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}

	player, switched, err := s.resolve(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load quiz failed")
		return s.sendError(msg.RequestID, httperrors.ErrCodeInternalError, "Failed to load quiz")
	}
	if player == nil {
		return s.send(ws.TypeNoSession, nil, msg.RequestID)
	}
	stale := ws.AnswerAckPayload{QuestionIndex: req.QuestionIndex}
	if switched {
		// The quiz was replaced elsewhere; the answer belongs to the old one.
		if err := s.send(ws.TypeAnswerAck, stale, msg.RequestID); err != nil {
			return err
		}
		return s.sendState(player, quiz.Outcome{Session: player.Session()}, msg.RequestID)
	}
	if idx := player.Session().CurrentIndex; req.QuestionIndex != idx {
		return s.send(ws.TypeAnswerAck, stale, msg.RequestID)
	}

	out, err := player.Answer(ctx, req.Answer)
	switch {
	case errors.Is(err, quiz.ErrPlayerRetired):
		return s.send(ws.TypeAnswerAck, stale, msg.RequestID)
	case errors.Is(err, quiz.ErrInvalidChoice):
		return s.sendError(msg.RequestID, httperrors.ErrCodeInvalidAnswer, "Answer is not one of the choices")
	case errors.Is(err, quiz.ErrSessionComplete):
		return s.sendState(player, quiz.Outcome{Complete: true, Result: player.Result()}, msg.RequestID)
	case err != nil:
		s.logger.Error().Err(err).Msg("submit answer failed")
		return s.sendError(msg.RequestID, httperrors.ErrCodeInternalError, "Failed to record answer")
	}

	ack := ws.AnswerAckPayload{
		QuestionIndex: req.QuestionIndex,
		Accepted:      out.Accepted,
		TimedOut:      out.TimedOut,
	}
	if err := s.send(ws.TypeAnswerAck, ack, msg.RequestID); err != nil {
		return err
	}
	return s.sendState(player, out, msg.RequestID)
}

// resolve returns the player the registry holds for this profile, switching
// the socket over when the one it held was replaced or evicted. The bool
// reports a switch.
func (s *socket) resolve(ctx context.Context) (*quiz.Player, bool, error) {
	held := s.currentPlayer()
	if held == nil {
		return nil, false, nil
	}

	live := s.h.registry.Live(s.profileID)
	switch {
	case live == held:
		return held, false, nil
	case live == nil && (!held.Retired() || held.Complete()):
		// Finished: nothing newer to follow.
		return held, false, nil
	case live == nil:
		var err error
		live, err = s.h.registry.Current(ctx, s.profileID)
		if err != nil {
			return held, false, err
		}
	}
	s.setPlayer(live)
	return live, true, nil
}

// tickLoop expires questions whose countdown ran out and pushes the
// remaining seconds whenever they change.
func (s *socket) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.conn.Done():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.onTick(ctx); err != nil {
				s.logger.Debug().Err(err).Msg("tick failed")
			}
		}
	}
}

func (s *socket) onTick(ctx context.Context) error {
	player, switched, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	if switched {
		if player == nil {
			return s.send(ws.TypeNoSession, nil, "")
		}
		return s.sendState(player, quiz.Outcome{Session: player.Session()}, "")
	}
	if player == nil || player.Complete() {
		return nil
	}

	out, err := player.Expire(ctx)
	if errors.Is(err, quiz.ErrPlayerRetired) {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("expire question failed")
		return s.sendError("", httperrors.ErrCodeInternalError, "Failed to record timeout")
	}
	if out.TimedOut > 0 {
		ack := ws.AnswerAckPayload{
			QuestionIndex: out.Session.CurrentIndex - out.TimedOut,
			TimedOut:      out.TimedOut,
		}
		if err := s.send(ws.TypeAnswerAck, ack, ""); err != nil {
			return err
		}
		return s.sendState(player, out, "")
	}

	index, remaining := out.Session.CurrentIndex, player.Remaining()
	s.mu.Lock()
	changed := index != s.lastIndex || remaining != s.lastRemain
	s.lastIndex, s.lastRemain = index, remaining
	s.mu.Unlock()
	if !changed {
		return nil
	}
	return s.send(ws.TypeTick, ws.TickPayload{QuestionIndex: index, RemainingSeconds: remaining}, "")
}

// sendState pushes the next question, or the summary once the quiz is done.
func (s *socket) sendState(player *quiz.Player, out quiz.Outcome, requestID string) error {
	if out.Complete {
		result := out.Result
		if result == nil {
			result = player.Result()
		}
		if result == nil {
			return s.sendError(requestID, httperrors.ErrCodeQuizComplete, "Quiz already complete")
		}
		return s.send(ws.TypeQuizComplete, result.Summarize(), requestID)
	}

	view, ok := player.View()
	if !ok {
		return s.send(ws.TypeNoSession, nil, requestID)
	}
	s.mu.Lock()
	s.lastIndex, s.lastRemain = view.Index, view.SecondsRemaining
	s.mu.Unlock()
	return s.send(ws.TypeQuestion, ws.QuestionPayload{
		Index:              view.Index,
		Total:              view.Total,
		Category:           view.Category,
		Type:               view.Type,
		Difficulty:         view.Difficulty,
		Prompt:             view.Prompt,
		Choices:            view.Choices,
		SecondsPerQuestion: view.SecondsPerQuestion,
		SecondsRemaining:   view.SecondsRemaining,
	}, requestID)
}

func (s *socket) send(msgType string, payload any, requestID string) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return s.conn.Send(msg)
}

func (s *socket) sendError(requestID, code, message string) error {
	return s.send(ws.TypeError, ws.ErrorPayload{Code: code, Message: message}, requestID)
}
