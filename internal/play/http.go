package play

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/logging"
	"github.com/gokatarajesh/trivia-quiz/internal/profile"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	httperrors "github.com/gokatarajesh/trivia-quiz/pkg/http/errors"
)

// HTTPHandlers exposes the quiz lifecycle as REST endpoints. The countdown is
// kept by the server; every call first closes questions whose time ran out.
type HTTPHandlers struct {
	registry   *Registry
	defaults   quiz.Configuration
	categories CategoryLookup
	logger     zerolog.Logger
}

// NewHTTPHandlers constructs the quiz REST handlers. categories may be nil,
// which skips category validation.
func NewHTTPHandlers(registry *Registry, defaults quiz.Configuration, categories CategoryLookup, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		registry:   registry,
		defaults:   defaults,
		categories: categories,
		logger:     logger.With().Str("component", "quiz_http").Logger(),
	}
}

// Routes registers the quiz endpoints on mux.
func (h *HTTPHandlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/quiz", h.Start)
	mux.HandleFunc("GET /v1/quiz/current", h.Current)
	mux.HandleFunc("POST /v1/quiz/answer", h.Answer)
	mux.HandleFunc("GET /v1/quiz/result", h.Result)
}

// AnswerRequest submits an answer. A null answer closes the question unanswered.
// QuestionIndex, when present, must name the current question.
type AnswerRequest struct {
	Answer        *string `json:"answer"`
	QuestionIndex *int    `json:"question_index,omitempty"`
}

// AnswerResponse reports what an answer changed and what to show next.
type AnswerResponse struct {
	Accepted bool          `json:"accepted"`
	TimedOut int           `json:"timed_out"`
	Complete bool          `json:"complete"`
	Question *quiz.View    `json:"question,omitempty"`
	Result   *quiz.Summary `json:"result,omitempty"`
}

// Start handles POST /v1/quiz. The body holds the settings; omitted fields
// take the configured defaults.
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profile.FromContext(r.Context())
	if !ok {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidProfile, "Missing profile")
		return
	}

	cfg := h.defaults
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if !knownCategory(r.Context(), h.categories, cfg.Category) {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidCategory, "Unknown category", "category")
		return
	}

	player, err := h.registry.Start(r.Context(), profileID, cfg)
	switch {
	case errors.Is(err, quiz.ErrNoQuestionsAvailable):
		httperrors.RespondUnprocessable(w, httperrors.ErrCodeNoQuestions, "No questions available for these settings. Try different options.")
		return
	case errors.Is(err, quiz.ErrTransport):
		httperrors.RespondBadGateway(w, httperrors.ErrCodeUpstreamError, "Failed to fetch questions. Please try again.")
		return
	case err != nil:
		h.log(r).Error().Err(err).Msg("start quiz failed")
		httperrors.RespondInternalError(w, "Failed to start quiz")
		return
	}

	view, _ := player.View()
	respondJSON(w, http.StatusCreated, view)
}

// Current handles GET /v1/quiz/current.
func (h *HTTPHandlers) Current(w http.ResponseWriter, r *http.Request) {
	player, ok := h.player(w, r)
	if !ok {
		return
	}

	_, err := player.Expire(r.Context())
	switch {
	case errors.Is(err, quiz.ErrPlayerRetired):
		httperrors.RespondConflict(w, httperrors.ErrCodeStaleQuestion, "Quiz was replaced")
		return
	case err != nil:
		h.log(r).Error().Err(err).Msg("expire question failed")
		httperrors.RespondInternalError(w, "Failed to load quiz")
		return
	}
	view, ok := player.View()
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveQuiz, "No quiz in progress")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Answer handles POST /v1/quiz/answer.
func (h *HTTPHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	player, ok := h.player(w, r)
	if !ok {
		return
	}
	if req.QuestionIndex != nil && *req.QuestionIndex != player.Session().CurrentIndex {
		httperrors.RespondConflict(w, httperrors.ErrCodeStaleQuestion, "Question already answered")
		return
	}

	var (
		out quiz.Outcome
		err error
	)
	if req.Answer == nil {
		out, err = player.Forfeit(r.Context())
	} else {
		out, err = player.Answer(r.Context(), *req.Answer)
	}
	switch {
	case errors.Is(err, quiz.ErrPlayerRetired):
		httperrors.RespondConflict(w, httperrors.ErrCodeStaleQuestion, "Quiz was replaced")
		return
	case errors.Is(err, quiz.ErrInvalidChoice):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidAnswer, "Answer is not one of the choices", "answer")
		return
	case errors.Is(err, quiz.ErrSessionComplete):
		httperrors.RespondConflict(w, httperrors.ErrCodeQuizComplete, "Quiz already complete")
		return
	case err != nil:
		h.log(r).Error().Err(err).Msg("submit answer failed")
		httperrors.RespondInternalError(w, "Failed to record answer")
		return
	}

	resp := AnswerResponse{
		Accepted: out.Accepted,
		TimedOut: out.TimedOut,
		Complete: out.Complete,
	}
	if out.Complete && out.Result != nil {
		summary := out.Result.Summarize()
		resp.Result = &summary
	} else if view, ok := player.View(); ok {
		resp.Question = &view
	}
	respondJSON(w, http.StatusOK, resp)
}

// Result handles GET /v1/quiz/result: the latest completed quiz with review.
func (h *HTTPHandlers) Result(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profile.FromContext(r.Context())
	if !ok {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidProfile, "Missing profile")
		return
	}

	result, err := h.registry.Lifecycle(profileID).LatestResult(r.Context())
	if err != nil {
		h.log(r).Error().Err(err).Msg("load result failed")
		httperrors.RespondInternalError(w, "Failed to load result")
		return
	}
	if result == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoResult, "No completed quiz")
		return
	}
	respondJSON(w, http.StatusOK, result.Summarize())
}

func (h *HTTPHandlers) player(w http.ResponseWriter, r *http.Request) (*quiz.Player, bool) {
	profileID, ok := profile.FromContext(r.Context())
	if !ok {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidProfile, "Missing profile")
		return nil, false
	}
	player, err := h.registry.Current(r.Context(), profileID)
	if err != nil {
		h.log(r).Error().Err(err).Msg("load quiz failed")
		httperrors.RespondInternalError(w, "Failed to load quiz")
		return nil, false
	}
	if player == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveQuiz, "No quiz in progress")
		return nil, false
	}
	return player, true
}

// log prefers the request's logger, which carries the request ID.
func (h *HTTPHandlers) log(r *http.Request) zerolog.Logger {
	if l := logging.FromContext(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "quiz_http").Logger()
	}
	return h.logger
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
