package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"drivecert/internal/platform/config"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

// Service evaluates and updates lockout state around every login attempt.
type Service struct {
	store          Store
	config         config.LockoutConfig
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

func New(store Store, cfg config.LockoutConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}

	svc := &Service{store: store, config: cfg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check decides whether a login attempt for the credential may proceed.
// The zero-valued record keeps a consistent code path for unknown
// credentials, so response timing does not reveal whether one exists.
func (s *Service) Check(ctx context.Context, credential string) (*Result, error) {
	record, err := s.store.Get(ctx, credential)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get lockout record")
	}
	if record == nil {
		record = &Record{}
	}

	now := requestcontext.Now(ctx)

	if record.HardLockedAt(now) {
		return &Result{
			Allowed:    false,
			RetryAfter: record.HardLockedUntil.Sub(now),
			HardLocked: true,
		}, nil
	}

	if delay := s.Backoff(record.FailureCount); delay > 0 {
		readyAt := record.LastFailureAt.Add(delay)
		if now.Before(readyAt) {
			return &Result{Allowed: false, RetryAfter: readyAt.Sub(now)}, nil
		}
	}

	return &Result{Allowed: true}, nil
}

// RecordFailure registers one failed attempt and applies the flat hard lock
// when the rate window trips. The store's increment is atomic, so two racing
// failures cannot both observe the pre-increment count.
func (s *Service) RecordFailure(ctx context.Context, credential string) (*Record, error) {
	now := requestcontext.Now(ctx)
	record, err := s.store.RecordFailure(ctx, credential, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}

	if record.WindowCount >= s.config.RateLimitMax && !record.HardLockedAt(now) {
		until := now.Add(s.config.HardLockDuration)
		if err := s.store.SetHardLock(ctx, credential, until); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set hard lock")
		}
		record.HardLockedUntil = &until

		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.CategorySecurity,
			Timestamp: now,
			Subject:   credential,
			Action:    audit.EventExamLockout,
			Reason:    "rate limit tripped",
			RequestID: requestcontext.RequestID(ctx),
		})
	}

	return record, nil
}

// Clear resets the consecutive-failure counter after a successful login.
func (s *Service) Clear(ctx context.Context, credential string) error {
	if err := s.store.ResetFailures(ctx, credential); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

// Backoff returns the wait imposed after failureCount consecutive failures:
// zero below the threshold, then base doubling per failure up to the cap.
// With the default config the sequence from the third failure is
// 30s, 60s, 120s, 240s, 300s, 300s.
func (s *Service) Backoff(failureCount int) time.Duration {
	if failureCount < s.config.FailureThreshold {
		return 0
	}
	delay := s.config.BaseBackoff << uint(failureCount-s.config.FailureThreshold)
	if delay > s.config.MaxBackoff || delay <= 0 {
		return s.config.MaxBackoff
	}
	return delay
}
