// Package handler exposes application lifecycle administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drivecert/internal/domain"
	"drivecert/internal/lifecycle"
	id "drivecert/pkg/domain"
	"drivecert/pkg/platform/httputil"
	"drivecert/pkg/requestcontext"
)

// Service defines the interface for lifecycle operations.
type Service interface {
	Advance(ctx context.Context, appID id.ApplicationID, event lifecycle.Event) (domain.ApplicationStatus, error)
	IssueCertificate(ctx context.Context, appID id.ApplicationID) (domain.Application, error)
	ResetDrivingTest(ctx context.Context, appID id.ApplicationID) (domain.Application, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{applicationID}/lifecycle/{event}", h.HandleEvent)
	r.Post("/applications/{applicationID}/certificate", h.HandleIssueCertificate)
	r.Post("/applications/{applicationID}/driving-test/reset", h.HandleResetDrivingTest)
}

// HandleEvent handles POST /applications/{applicationID}/lifecycle/{event}.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	event, err := lifecycle.ParseEvent(chi.URLParam(r, "event"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.Advance(ctx, appID, event)
	if err != nil {
		h.logger.ErrorContext(ctx, "lifecycle event rejected",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"event", event,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lifecycle event applied",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID,
		"event", event,
		"status", status,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// HandleIssueCertificate handles POST /applications/{applicationID}/certificate.
func (h *Handler) HandleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.IssueCertificate(ctx, appID)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate issued",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID,
		"certificate_number", app.CertificateNumber,
	)
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleResetDrivingTest handles POST /applications/{applicationID}/driving-test/reset.
func (h *Handler) HandleResetDrivingTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.ResetDrivingTest(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "driving test reset",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID,
	)
	httputil.WriteJSON(w, http.StatusOK, app)
}
