package medical

import (
	"context"
	"errors"
	"log/slog"

	"drivecert/internal/domain"
	"drivecert/internal/lifecycle"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

// Service persists medical results and drives the lifecycle transition at
// final submission. Attestation and lock rules mirror the driving test.
type Service struct {
	apps    storage.ApplicationStore
	results storage.MedicalTestStore

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

func New(apps storage.ApplicationStore, results storage.MedicalTestStore, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, errors.New("application store is required")
	}
	if results == nil {
		return nil, errors.New("medical test store is required")
	}

	svc := &Service{apps: apps, results: results}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SaveDraft records lab findings without finalizing; fitness stays pending.
func (s *Service) SaveDraft(ctx context.Context, appID id.ApplicationID, inputs Inputs) (*domain.MedicalTestResult, error) {
	return s.save(ctx, appID, inputs, "", false)
}

// SubmitMedicalTest finalizes the result, locks it, and transitions the
// application by the fitness outcome.
func (s *Service) SubmitMedicalTest(ctx context.Context, appID id.ApplicationID, inputs Inputs, examinerName string) (*domain.MedicalTestResult, error) {
	if examinerName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "missing attestation")
	}
	return s.save(ctx, appID, inputs, examinerName, true)
}

func (s *Service) save(ctx context.Context, appID id.ApplicationID, inputs Inputs, examinerName string, submit bool) (*domain.MedicalTestResult, error) {
	if err := Validate(inputs); err != nil {
		return nil, err
	}

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store lookup failed")
	}
	if !lifecycle.CanSubmitMedical(app) {
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
		result = domain.MedicalTestResult{
			ID:            id.NewResultID(),
			ApplicationID: appID,
			FitnessStatus: domain.FitnessPending,
			CreatedAt:     now,
		}
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load medical test result")
	}

	result.Health = inputs.Health
	result.Alcohol = inputs.Alcohol
	result.Drugs = inputs.Drugs
	result.UpdatedAt = now

	if submit {
		report := Classify(inputs)
		result.HealthPassed = report.HealthPassed
		result.AlcoholClean = report.AlcoholClean
		result.DrugClean = report.DrugClean
		result.FitnessStatus = report.FitnessStatus
		result.ExaminerName = examinerName
		submittedAt := now
		result.SubmittedAt = &submittedAt
	}

	if err := s.results.Save(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save medical test result")
	}

	if submit {
		passed := result.FitnessStatus.Passing()
		fitness := result.FitnessStatus
		app.Status = lifecycle.MedicalOutcome(passed)
		app.MedicalTestPassed = passed
		app.MedicalFitness = &fitness
		app.UpdatedAt = now
		if err := s.apps.Save(ctx, app); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
		}

		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: now,
			Subject:   app.ID.String(),
			Action:    audit.EventMedicalTestSubmitted,
			Outcome:   string(result.FitnessStatus),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	return &result, nil
}
