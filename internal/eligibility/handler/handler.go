// Package handler exposes certificate verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"drivecert/internal/domain"
	"drivecert/pkg/platform/httputil"
	"drivecert/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	VerifySingle(ctx context.Context, certNo string) (domain.VerificationResult, error)
	VerifyBulk(ctx context.Context, certNos []string) ([]domain.VerificationResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{certificateNumber}", h.HandleVerify)
	r.Post("/verify/bulk", h.HandleVerifyBulk)
}

// HandleVerify handles GET /verify/{certificateNumber}.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.VerifySingle(ctx, chi.URLParam(r, "certificateNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate verified",
		"request_id", requestcontext.RequestID(ctx),
		"found", result.Found,
		"recommendation", result.Recommendation,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type bulkRequest struct {
	CertificateNumbers []string `json:"certificate_numbers"`
}

type bulkResponse struct {
	Results []domain.VerificationResult `json:"results"`
}

// HandleVerifyBulk handles POST /verify/bulk.
func (h *Handler) HandleVerifyBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req bulkRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.service.VerifyBulk(ctx, req.CertificateNumbers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bulk verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, bulkResponse{Results: results})
}
