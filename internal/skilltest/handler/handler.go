// Package handler exposes driving-test scoring over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"drivecert/internal/domain"
	"drivecert/internal/skilltest"
	id "drivecert/pkg/domain"
	"drivecert/pkg/platform/httputil"
	"drivecert/pkg/requestcontext"
)

// Service defines the interface for driving-test scoring operations.
type Service interface {
	SaveDraft(ctx context.Context, appID id.ApplicationID, inputs skilltest.Inputs) (*domain.DrivingTestResult, error)
	SubmitDrivingTest(ctx context.Context, appID id.ApplicationID, inputs skilltest.Inputs, examinerName string) (*domain.DrivingTestResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts driving-test endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{applicationID}/driving-test", h.HandleSubmit)
	r.Post("/applications/{applicationID}/driving-test/draft", h.HandleDraft)
}

type scoreRequest struct {
	Traffic      skilltest.TrafficInput    `json:"traffic"`
	Practical    skilltest.PracticalInput  `json:"practical"`
	Inspection   skilltest.InspectionInput `json:"inspection"`
	ExaminerName string                    `json:"examiner_name"`
}

// HandleSubmit handles POST /applications/{applicationID}/driving-test.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

// HandleDraft handles POST /applications/{applicationID}/driving-test/draft.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, submit bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req scoreRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	inputs := skilltest.Inputs{
		Traffic:    req.Traffic,
		Practical:  req.Practical,
		Inspection: req.Inspection,
	}

	var result *domain.DrivingTestResult
	if submit {
		result, err = h.service.SubmitDrivingTest(ctx, appID, inputs, req.ExaminerName)
	} else {
		result, err = h.service.SaveDraft(ctx, appID, inputs)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "driving test save failed",
			"request_id", requestID,
			"application_id", appID,
			"submit", submit,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "driving test saved",
		"request_id", requestID,
		"application_id", appID,
		"submit", submit,
		"total", result.Total,
		"grade", result.SkillGrade,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
