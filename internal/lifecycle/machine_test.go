package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

type MachineSuite struct {
	suite.Suite
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func reviewReady() domain.Application {
	return domain.Application{
		Status:            domain.StatusAdminReview,
		DrivingTestPassed: true,
		MedicalTestPassed: true,
		Identity: domain.IdentityVerification{
			PhotoMatched:    true,
			LicenseVerified: true,
			PoliceClearance: true,
		},
	}
}

func (s *MachineSuite) TestParseEvent() {
	for _, name := range []string{"request_admin_review", "approve", "reject"} {
		_, err := ParseEvent(name)
		s.NoError(err)
	}

	_, err := ParseEvent("certify")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *MachineSuite) TestSubmissionGates() {
	s.Run("driving test from submitted or a pending medical-first stage", func() {
		s.True(CanSubmitDriving(domain.Application{Status: domain.StatusSubmitted}))
		s.True(CanSubmitDriving(domain.Application{Status: domain.StatusMedicalTestCompleted}))
		s.True(CanSubmitDriving(domain.Application{Status: domain.StatusMedicalTestFailed}))
		s.False(CanSubmitDriving(domain.Application{Status: domain.StatusDrivingTestCompleted}))
		s.False(CanSubmitDriving(domain.Application{Status: domain.StatusApproved}))
	})

	s.Run("a recorded driving outcome closes the medical-first gate", func() {
		grade := domain.GradeB
		s.False(CanSubmitDriving(domain.Application{
			Status:     domain.StatusMedicalTestCompleted,
			SkillGrade: &grade,
		}))
	})

	s.Run("medical test allowed regardless of driving outcome", func() {
		s.True(CanSubmitMedical(domain.Application{Status: domain.StatusSubmitted}))
		s.True(CanSubmitMedical(domain.Application{Status: domain.StatusDrivingTestCompleted}))
		s.True(CanSubmitMedical(domain.Application{Status: domain.StatusDrivingTestFailed}))
		s.False(CanSubmitMedical(domain.Application{Status: domain.StatusAdminReview}))
	})
}

func (s *MachineSuite) TestDrivingOutcome() {
	s.Run("failure always surfaces as driving_test_failed", func() {
		fitness := domain.FitnessFit
		s.Equal(domain.StatusDrivingTestFailed, DrivingOutcome(domain.Application{Status: domain.StatusSubmitted}, false))
		s.Equal(domain.StatusDrivingTestFailed, DrivingOutcome(domain.Application{
			Status:            domain.StatusMedicalTestCompleted,
			MedicalFitness:    &fitness,
			MedicalTestPassed: true,
		}, false))
	})

	s.Run("pass after medical keeps review reachable", func() {
		fitness := domain.FitnessConditionallyFit
		s.Equal(domain.StatusMedicalTestCompleted, DrivingOutcome(domain.Application{
			Status:            domain.StatusMedicalTestCompleted,
			MedicalFitness:    &fitness,
			MedicalTestPassed: true,
		}, true))

		unfit := domain.FitnessUnfit
		s.Equal(domain.StatusMedicalTestFailed, DrivingOutcome(domain.Application{
			Status:         domain.StatusMedicalTestFailed,
			MedicalFitness: &unfit,
		}, true))
	})

	s.Run("pass before medical advances the linear flow", func() {
		s.Equal(domain.StatusDrivingTestCompleted, DrivingOutcome(domain.Application{Status: domain.StatusSubmitted}, true))
	})
}

func (s *MachineSuite) TestNext() {
	s.Run("review reachable after either medical outcome", func() {
		for _, status := range []domain.ApplicationStatus{
			domain.StatusMedicalTestCompleted, domain.StatusMedicalTestFailed,
		} {
			next, err := Next(domain.Application{Status: status}, EventRequestAdminReview)
			s.Require().NoError(err)
			s.Equal(domain.StatusAdminReview, next)
		}
	})

	s.Run("approve requires every gate", func() {
		next, err := Next(reviewReady(), EventApprove)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, next)

		app := reviewReady()
		app.DrivingTestPassed = false
		_, err = Next(app, EventApprove)
		s.ErrorContains(err, "driving test not passed")

		app = reviewReady()
		app.MedicalTestPassed = false
		_, err = Next(app, EventApprove)
		s.ErrorContains(err, "medical test not passed")

		app = reviewReady()
		app.Identity.PoliceClearance = false
		_, err = Next(app, EventApprove)
		s.ErrorContains(err, "identity not verified")
	})

	s.Run("reject only from review", func() {
		next, err := Next(domain.Application{Status: domain.StatusAdminReview}, EventReject)
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, next)

		_, err = Next(domain.Application{Status: domain.StatusSubmitted}, EventReject)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("illegal transitions name the state", func() {
		_, err := Next(domain.Application{Status: domain.StatusCertified}, EventApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.ErrorContains(err, "certified")
	})
}
