package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"drivecert/internal/domain"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

// DefaultCertificateValidity is how long an issued certificate stays active.
const DefaultCertificateValidity = 2 * 365 * 24 * time.Hour

// Service applies lifecycle transitions to stored applications: admin review,
// approval, rejection, certificate issuance, and driving-test resets.
type Service struct {
	apps    storage.ApplicationStore
	driving storage.DrivingTestStore

	certValidity   time.Duration
	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithCertificateValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.certValidity = d
		}
	}
}

func New(apps storage.ApplicationStore, driving storage.DrivingTestStore, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, errors.New("application store is required")
	}
	if driving == nil {
		return nil, errors.New("driving test store is required")
	}

	svc := &Service{
		apps:         apps,
		driving:      driving,
		certValidity: DefaultCertificateValidity,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Advance applies an administrative lifecycle event and returns the new
// state. Illegal transitions are rejected with the stored state untouched.
func (s *Service) Advance(ctx context.Context, appID id.ApplicationID, event Event) (domain.ApplicationStatus, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return "", translateNotFound(err, "application")
	}

	next, err := Next(app, event)
	if err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	app.Status = next
	if event == EventApprove {
		app.AdminApproved = true
	}
	app.UpdatedAt = now

	if err := s.apps.Save(ctx, app); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}

	s.emitEventAudit(ctx, app, event, now)
	return next, nil
}

// IssueCertificate assigns a certificate number exactly once, reachable only
// from the approved state. A second issuance attempt is rejected.
func (s *Service) IssueCertificate(ctx context.Context, appID id.ApplicationID) (domain.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return domain.Application{}, translateNotFound(err, "application")
	}

	if app.Certified() {
		return domain.Application{}, dErrors.New(dErrors.CodeConflict, "already certified")
	}
	if app.Status != domain.StatusApproved {
		return domain.Application{}, dErrors.Newf(dErrors.CodeConflict, "cannot issue certificate from state %s", app.Status)
	}

	now := requestcontext.Now(ctx)
	certNo := newCertificateNumber(now)
	expiry := now.Add(s.certValidity)

	app.CertificateNumber = &certNo
	app.CertificateStatus = domain.CertificateActive
	app.CertificateExpiry = &expiry
	app.Status = domain.StatusCertified
	app.UpdatedAt = now

	if err := s.apps.Save(ctx, app); err != nil {
		return domain.Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		Subject:   app.ID.String(),
		Action:    audit.EventCertificateIssued,
		Outcome:   certNo,
		RequestID: requestcontext.RequestID(ctx),
	})
	return app, nil
}

// ResetDrivingTest discards a failed driving test so the candidate can retest
// with a fresh, editable result. Only a failed driving test can be reset; no
// retest path exists for a failed medical exam.
func (s *Service) ResetDrivingTest(ctx context.Context, appID id.ApplicationID) (domain.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return domain.Application{}, translateNotFound(err, "application")
	}

	if app.Status != domain.StatusDrivingTestFailed {
		return domain.Application{}, dErrors.Newf(dErrors.CodeConflict, "cannot reset driving test from state %s", app.Status)
	}

	if err := s.driving.Delete(ctx, appID); err != nil {
		return domain.Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete driving test result")
	}

	now := requestcontext.Now(ctx)
	// When the medical stage already concluded, the retest starts from that
	// stage's status; otherwise the application goes back to the beginning.
	app.Status = domain.StatusSubmitted
	if app.MedicalFitness != nil {
		app.Status = MedicalOutcome(app.MedicalTestPassed)
	}
	app.DrivingTestPassed = false
	app.SkillGrade = nil
	app.UpdatedAt = now

	if err := s.apps.Save(ctx, app); err != nil {
		return domain.Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		Subject:   app.ID.String(),
		Action:    audit.EventDrivingTestReset,
		RequestID: requestcontext.RequestID(ctx),
	})
	return app, nil
}

func (s *Service) emitEventAudit(ctx context.Context, app domain.Application, event Event, now time.Time) {
	action := audit.EventApplicationApproved
	switch event {
	case EventReject:
		action = audit.EventApplicationRejected
	case EventRequestAdminReview:
		// Routine progress; log only.
		if s.logger != nil {
			s.logger.InfoContext(ctx, "application entered admin review", "application_id", app.ID.String())
		}
		return
	}
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		Subject:   app.ID.String(),
		Action:    action,
		Outcome:   string(app.Status),
		RequestID: requestcontext.RequestID(ctx),
	})
}

// newCertificateNumber builds a human-quotable unique certificate number.
func newCertificateNumber(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("DC-%d-%X", now.Year(), u[:4])
}

func translateNotFound(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", what)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store lookup failed")
}
