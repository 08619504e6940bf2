// Package handler exposes medical fitness evaluation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drivecert/internal/domain"
	"drivecert/internal/medical"
	id "drivecert/pkg/domain"
	"drivecert/pkg/platform/httputil"
	"drivecert/pkg/requestcontext"
)

// Service defines the interface for medical evaluation operations.
type Service interface {
	SaveDraft(ctx context.Context, appID id.ApplicationID, inputs medical.Inputs) (*domain.MedicalTestResult, error)
	SubmitMedicalTest(ctx context.Context, appID id.ApplicationID, inputs medical.Inputs, examinerName string) (*domain.MedicalTestResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts medical-test endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{applicationID}/medical-test", h.HandleSubmit)
	r.Post("/applications/{applicationID}/medical-test/draft", h.HandleDraft)
}

type medicalRequest struct {
	Health       domain.HealthScreening `json:"health"`
	Alcohol      domain.ScreenResult    `json:"alcohol"`
	Drugs        domain.DrugScreen      `json:"drugs"`
	ExaminerName string                 `json:"examiner_name"`
}

// HandleSubmit handles POST /applications/{applicationID}/medical-test.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

// HandleDraft handles POST /applications/{applicationID}/medical-test/draft.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, submit bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req medicalRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	inputs := medical.Inputs{Health: req.Health, Alcohol: req.Alcohol, Drugs: req.Drugs}

	var result *domain.MedicalTestResult
	if submit {
		result, err = h.service.SubmitMedicalTest(ctx, appID, inputs, req.ExaminerName)
	} else {
		result, err = h.service.SaveDraft(ctx, appID, inputs)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "medical test save failed",
			"request_id", requestID,
			"application_id", appID,
			"submit", submit,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "medical test saved",
		"request_id", requestID,
		"application_id", appID,
		"submit", submit,
		"fitness", result.FitnessStatus,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
