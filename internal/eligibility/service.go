package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"drivecert/internal/domain"
	"drivecert/internal/eligibility/metrics"
	"drivecert/internal/storage"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

const (
	// MaxBulkSize caps one bulk request.
	MaxBulkSize = 500
	// bulk lookups fan out at most this wide.
	bulkBatchSize = 10
)

// Service answers certificate verification queries for employers and other
// third parties.
type Service struct {
	apps    storage.ApplicationStore
	driving storage.DrivingTestStore
	medical storage.MedicalTestStore

	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(apps storage.ApplicationStore, driving storage.DrivingTestStore, medical storage.MedicalTestStore, opts ...Option) (*Service, error) {
	if apps == nil || driving == nil || medical == nil {
		return nil, errors.New("eligibility stores are required")
	}

	svc := &Service{apps: apps, driving: driving, medical: medical}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerifySingle resolves one certificate number. Unknown numbers return a
// not-found result, not an error.
func (s *Service) VerifySingle(ctx context.Context, certNo string) (domain.VerificationResult, error) {
	if certNo == "" {
		return domain.VerificationResult{}, dErrors.New(dErrors.CodeValidation, "certificate number is required")
	}

	result, err := s.resolve(ctx, certNo)
	if err != nil {
		return domain.VerificationResult{}, err
	}

	s.metrics.ObserveVerification(string(result.Recommendation))
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: requestcontext.Now(ctx),
		Subject:   certNo,
		Action:    audit.EventCertificateVerified,
		Outcome:   string(result.Recommendation),
		RequestID: requestcontext.RequestID(ctx),
	})
	return result, nil
}

// VerifyBulk resolves up to MaxBulkSize certificate numbers, dispatching
// lookups in batches of ten. Results come back in input order; each entry is
// resolved exactly as VerifySingle would.
func (s *Service) VerifyBulk(ctx context.Context, certNos []string) ([]domain.VerificationResult, error) {
	if len(certNos) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one certificate number is required")
	}
	if len(certNos) > MaxBulkSize {
		return nil, dErrors.Newf(dErrors.CodeValidation, "batch too large: %d certificates exceed the limit of %d", len(certNos), MaxBulkSize)
	}

	// Pre-sized slots keyed by input position keep the output order stable
	// no matter how the batches interleave.
	results := make([]domain.VerificationResult, len(certNos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkBatchSize)
	for i, certNo := range certNos {
		i, certNo := i, certNo
		g.Go(func() error {
			if certNo == "" {
				// A blank slot verifies like any unknown number; one bad
				// entry never sinks the rest of the batch.
				results[i] = NotFoundResult(certNo)
				return nil
			}
			result, err := s.resolve(gctx, certNo)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.metrics.ObserveBulk(len(certNos))
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: requestcontext.Now(ctx),
		Subject:   "bulk",
		Action:    audit.EventCertificateVerified,
		Outcome:   strconv.Itoa(len(certNos)),
		RequestID: requestcontext.RequestID(ctx),
	})
	return results, nil
}

// resolve loads the application and its test results and applies the pure
// rules. Verification never writes domain state.
func (s *Service) resolve(ctx context.Context, certNo string) (domain.VerificationResult, error) {
	app, err := s.apps.FindByCertificateNumber(ctx, certNo)
	if errors.Is(err, storage.ErrNotFound) {
		return NotFoundResult(certNo), nil
	}
	if err != nil {
		return domain.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up certificate")
	}

	var driving *domain.DrivingTestResult
	if d, err := s.driving.FindByApplication(ctx, app.ID); err == nil {
		driving = &d
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load driving test result")
	}

	var medical *domain.MedicalTestResult
	if m, err := s.medical.FindByApplication(ctx, app.ID); err == nil {
		medical = &m
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load medical test result")
	}

	return Resolve(app, driving, medical, requestcontext.Now(ctx)), nil
}
