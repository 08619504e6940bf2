package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/platform/config"
	"drivecert/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	cfg     config.LockoutConfig

	now time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.cfg = config.Default().Lockout
	s.store = NewMemory(s.cfg.RateLimitWindow)

	var err error
	s.service, err = New(s.store, s.cfg)
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) TestBackoff() {
	s.Run("no delay below the threshold", func() {
		s.Equal(time.Duration(0), s.service.Backoff(0))
		s.Equal(time.Duration(0), s.service.Backoff(2))
	})

	s.Run("doubles from the threshold up to the cap", func() {
		expected := []time.Duration{
			30 * time.Second,
			60 * time.Second,
			120 * time.Second,
			240 * time.Second,
			300 * time.Second,
			300 * time.Second,
		}
		for i, want := range expected {
			s.Equal(want, s.service.Backoff(3+i), "failure %d", 3+i)
		}
	})
}

func (s *ServiceSuite) TestCheck() {
	const credential = "driver-001"

	s.Run("unknown credential is allowed", func() {
		result, err := s.service.Check(s.ctxAt(s.now), credential)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("two failures do not delay", func() {
		ctx := s.ctxAt(s.now)
		for i := 0; i < 2; i++ {
			_, err := s.service.RecordFailure(ctx, credential)
			s.Require().NoError(err)
		}
		result, err := s.service.Check(ctx, credential)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("third failure imposes the base delay", func() {
		ctx := s.ctxAt(s.now)
		_, err := s.service.RecordFailure(ctx, credential)
		s.Require().NoError(err)

		result, err := s.service.Check(ctx, credential)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.False(result.HardLocked)
		s.Equal(30*time.Second, result.RetryAfter)
	})

	s.Run("delay elapses", func() {
		result, err := s.service.Check(s.ctxAt(s.now.Add(31*time.Second)), credential)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("clear resets the consecutive counter", func() {
		ctx := s.ctxAt(s.now)
		s.Require().NoError(s.service.Clear(ctx, credential))

		result, err := s.service.Check(ctx, credential)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *ServiceSuite) TestHardLock() {
	const credential = "driver-002"

	s.Run("tripping the rate window imposes the flat lock", func() {
		// 10 failures inside one minute, clearing the consecutive counter
		// along the way so only the window counter can trip.
		for i := 0; i < s.cfg.RateLimitMax; i++ {
			ctx := s.ctxAt(s.now.Add(time.Duration(i) * time.Second))
			_, err := s.service.RecordFailure(ctx, credential)
			s.Require().NoError(err)
			s.Require().NoError(s.service.Clear(ctx, credential))
		}

		result, err := s.service.Check(s.ctxAt(s.now.Add(10*time.Second)), credential)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.True(result.HardLocked)
		s.InDelta(s.cfg.HardLockDuration.Seconds(), result.RetryAfter.Seconds(), 10)
	})

	s.Run("success does not lift the hard lock", func() {
		ctx := s.ctxAt(s.now.Add(20 * time.Second))
		s.Require().NoError(s.service.Clear(ctx, credential))

		result, err := s.service.Check(ctx, credential)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.True(result.HardLocked)
	})

	s.Run("lock expires after its duration", func() {
		later := s.now.Add(9*time.Second + s.cfg.HardLockDuration + time.Minute)
		result, err := s.service.Check(s.ctxAt(later), credential)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *ServiceSuite) TestWindowRoll() {
	const credential = "driver-003"

	// failures spread across windows never reach the rate limit
	for i := 0; i < s.cfg.RateLimitMax+5; i++ {
		ctx := s.ctxAt(s.now.Add(time.Duration(i) * 2 * time.Minute))
		record, err := s.service.RecordFailure(ctx, credential)
		s.Require().NoError(err)
		s.Equal(1, record.WindowCount)
		s.Require().NoError(s.service.Clear(ctx, credential))
	}

	result, err := s.service.Check(s.ctxAt(s.now.Add(time.Hour)), credential)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
