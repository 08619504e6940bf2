package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/domain"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	apps    *storage.InMemoryApplicationStore
	driving *storage.InMemoryDrivingTestStore
	service *Service

	ctx context.Context
	now time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.apps = storage.NewInMemoryApplicationStore()
	s.driving = storage.NewInMemoryDrivingTestStore()

	var err error
	s.service, err = New(s.apps, s.driving)
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) saveApplication(app domain.Application) domain.Application {
	if app.ID.IsZero() {
		app.ID = id.NewApplicationID()
	}
	s.Require().NoError(s.apps.Save(s.ctx, app))
	return app
}

func (s *ServiceSuite) TestAdvance() {
	s.Run("approve sets the admin flag", func() {
		app := s.saveApplication(reviewReady())

		status, err := s.service.Advance(s.ctx, app.ID, EventApprove)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, status)

		stored, err := s.apps.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.True(stored.AdminApproved)
	})

	s.Run("illegal event leaves the application untouched", func() {
		app := s.saveApplication(domain.Application{Status: domain.StatusSubmitted})

		_, err := s.service.Advance(s.ctx, app.ID, EventApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.apps.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, stored.Status)
		s.False(stored.AdminApproved)
	})

	s.Run("unknown application returns not found", func() {
		_, err := s.service.Advance(s.ctx, id.NewApplicationID(), EventReject)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestIssueCertificate() {
	s.Run("assigns number, expiry and active status", func() {
		app := reviewReady()
		app.Status = domain.StatusApproved
		app.AdminApproved = true
		app = s.saveApplication(app)

		issued, err := s.service.IssueCertificate(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().NotNil(issued.CertificateNumber)
		s.Regexp(`^DC-2026-[0-9A-F]{8}$`, *issued.CertificateNumber)
		s.Equal(domain.CertificateActive, issued.CertificateStatus)
		s.Equal(domain.StatusCertified, issued.Status)
		s.Require().NotNil(issued.CertificateExpiry)
		s.Equal(s.now.Add(DefaultCertificateValidity), *issued.CertificateExpiry)
	})

	s.Run("second issuance is a conflict", func() {
		app := reviewReady()
		app.Status = domain.StatusApproved
		app.AdminApproved = true
		app = s.saveApplication(app)

		_, err := s.service.IssueCertificate(s.ctx, app.ID)
		s.Require().NoError(err)

		_, err = s.service.IssueCertificate(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.ErrorContains(err, "already certified")
	})

	s.Run("unreachable before approval", func() {
		app := s.saveApplication(reviewReady())

		_, err := s.service.IssueCertificate(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestResetDrivingTest() {
	s.Run("clears the failed result and reopens testing", func() {
		grade := domain.GradeFail
		app := s.saveApplication(domain.Application{
			Status:     domain.StatusDrivingTestFailed,
			SkillGrade: &grade,
		})
		s.Require().NoError(s.driving.Save(s.ctx, domain.DrivingTestResult{
			ID:            id.NewResultID(),
			ApplicationID: app.ID,
		}))

		reset, err := s.service.ResetDrivingTest(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, reset.Status)
		s.False(reset.DrivingTestPassed)
		s.Nil(reset.SkillGrade)

		_, err = s.driving.FindByApplication(s.ctx, app.ID)
		s.ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("only a failed driving test can be reset", func() {
		app := s.saveApplication(domain.Application{Status: domain.StatusMedicalTestFailed})

		_, err := s.service.ResetDrivingTest(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
