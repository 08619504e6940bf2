package skilltest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"drivecert/internal/domain"
	"drivecert/internal/lifecycle"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

// Inputs bundles the three scoring sections a test center records.
type Inputs struct {
	Traffic    TrafficInput    `json:"traffic"`
	Practical  PracticalInput  `json:"practical"`
	Inspection InspectionInput `json:"inspection"`
}

// Service persists driving-test results and drives the lifecycle transition
// at the moment of final submission. Draft saves derive and persist the same
// report but leave the result editable and the lifecycle untouched.
type Service struct {
	apps    storage.ApplicationStore
	results storage.DrivingTestStore

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

func New(apps storage.ApplicationStore, results storage.DrivingTestStore, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, errors.New("application store is required")
	}
	if results == nil {
		return nil, errors.New("driving test store is required")
	}

	svc := &Service{apps: apps, results: results}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SaveDraft records scores without finalizing; the result stays editable.
func (s *Service) SaveDraft(ctx context.Context, appID id.ApplicationID, inputs Inputs) (*domain.DrivingTestResult, error) {
	return s.save(ctx, appID, inputs, "", false)
}

// SubmitDrivingTest finalizes the result, locks it, and transitions the
// application by the scoring outcome. Nothing is persisted on rejection.
func (s *Service) SubmitDrivingTest(ctx context.Context, appID id.ApplicationID, inputs Inputs, examinerName string) (*domain.DrivingTestResult, error) {
	if examinerName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "missing attestation")
	}
	return s.save(ctx, appID, inputs, examinerName, true)
}

func (s *Service) save(ctx context.Context, appID id.ApplicationID, inputs Inputs, examinerName string, submit bool) (*domain.DrivingTestResult, error) {
	if err := Validate(inputs.Traffic, inputs.Practical, inputs.Inspection); err != nil {
		return nil, err
	}

	app, err := s.findApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanSubmitDriving(app) {
		return nil, dErrors.New(dErrors.CodeConflict, "not awaiting this test")
	}

	now := requestcontext.Now(ctx)
	result, err := s.results.FindByApplication(ctx, appID)
	switch {
	case err == nil:
		if result.Submitted() {
			return nil, dErrors.New(dErrors.CodeConflict, "result locked")
		}
	case errors.Is(err, storage.ErrNotFound):
		result = domain.DrivingTestResult{
			ID:            id.NewResultID(),
			ApplicationID: appID,
			CreatedAt:     now,
		}
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load driving test result")
	}

	// A blank traffic section defers to the score the remote exam already
	// propagated into the draft.
	traffic := inputs.Traffic
	if traffic.Presented == 0 && result.Traffic.Presented > 0 {
		traffic = TrafficInput{Correct: result.Traffic.Correct, Presented: result.Traffic.Presented}
	}

	report := Score(traffic, inputs.Practical, inputs.Inspection, app.Identity.Complete())
	result.Traffic = report.Traffic
	result.Practical = report.Practical
	result.Inspection = report.Inspection
	result.Total = report.Total
	result.SkillGrade = report.SkillGrade
	result.OverallPassed = report.OverallPassed
	result.UpdatedAt = now

	if submit {
		result.ExaminerName = examinerName
		submittedAt := now
		result.SubmittedAt = &submittedAt
	}

	if err := s.results.Save(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save driving test result")
	}

	if submit {
		if err := s.applyOutcome(ctx, app, report, now); err != nil {
			return nil, err
		}
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: now,
			Subject:   app.ID.String(),
			Action:    audit.EventDrivingTestSubmitted,
			Outcome:   string(report.SkillGrade),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	return &result, nil
}

// applyOutcome propagates the submitted result to the application exactly as
// the scoring module derived it.
func (s *Service) applyOutcome(ctx context.Context, app domain.Application, report Report, now time.Time) error {
	app.Status = lifecycle.DrivingOutcome(app, report.OverallPassed)
	app.DrivingTestPassed = report.OverallPassed
	grade := report.SkillGrade
	app.SkillGrade = &grade
	app.UpdatedAt = now

	if err := s.apps.Save(ctx, app); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
	return nil
}

func (s *Service) findApplication(ctx context.Context, appID id.ApplicationID) (domain.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return domain.Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "store lookup failed")
	}
	return app, nil
}
