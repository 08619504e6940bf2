// Package handler exposes the remote exam session over HTTP. Answer and
// submit calls authenticate with the bearer ticket minted at login.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"drivecert/internal/domain"
	"drivecert/internal/examsession"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/httputil"
	"drivecert/pkg/requestcontext"
)

// Service defines the interface for exam session operations.
type Service interface {
	ScheduleSession(ctx context.Context, appID id.ApplicationID, testUserID, secretKey string) (domain.ExamSession, error)
	Login(ctx context.Context, testUserID, secretKey string) (*examsession.LoginResult, error)
	SubmitAnswer(ctx context.Context, sessionID id.SessionID, questionID string, position int) error
	Submit(ctx context.Context, sessionID id.SessionID, answers map[string]int) (*examsession.FinalScore, error)
}

// TicketVerifier resolves a bearer ticket to the session it was minted for.
type TicketVerifier interface {
	Verify(token string) (id.SessionID, error)
}

type Handler struct {
	service Service
	tickets TicketVerifier
	logger  *slog.Logger
}

func New(service Service, tickets TicketVerifier, logger *slog.Logger) *Handler {
	return &Handler{service: service, tickets: tickets, logger: logger}
}

// Register mounts exam endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{applicationID}/exam-session", h.HandleSchedule)
	r.Post("/exam/login", h.HandleLogin)
	r.Post("/exam/answer", h.HandleAnswer)
	r.Post("/exam/submit", h.HandleSubmit)
}

type scheduleRequest struct {
	TestUserID string `json:"test_user_id"`
	SecretKey  string `json:"secret_key"`
}

// HandleSchedule handles POST /applications/{applicationID}/exam-session.
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req scheduleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.ScheduleSession(ctx, appID, req.TestUserID, req.SecretKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "exam scheduling failed",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

type loginRequest struct {
	TestUserID string `json:"test_user_id"`
	SecretKey  string `json:"secret_key"`
}

// HandleLogin handles POST /exam/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.TestUserID, req.SecretKey)
	if err != nil {
		// Login failures are expected traffic; log at info without the
		// credential detail an attacker could probe for.
		h.logger.InfoContext(ctx, "exam login rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "exam login accepted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", result.SessionID,
		"status", result.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
}

// HandleAnswer handles POST /exam/answer.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := h.sessionFromTicket(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req answerRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.SubmitAnswer(ctx, sessionID, req.QuestionID, req.Position); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type submitRequest struct {
	Answers map[string]int `json:"answers,omitempty"`
}

// HandleSubmit handles POST /exam/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := h.sessionFromTicket(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req submitRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	final, err := h.service.Submit(ctx, sessionID, req.Answers)
	if err != nil {
		h.logger.ErrorContext(ctx, "exam submit failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "exam submitted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
		"scaled", final.Scaled,
	)
	httputil.WriteJSON(w, http.StatusOK, final)
}

func (h *Handler) sessionFromTicket(r *http.Request) (id.SessionID, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "missing session ticket")
	}
	return h.tickets.Verify(token)
}
