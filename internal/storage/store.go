package storage

import (
	"context"
	"time"

	"drivecert/internal/domain"
	id "drivecert/pkg/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory or external persistence without rewiring business code.
// Schema migrations are out of scope; the postgres store assumes its tables.

type ApplicationStore interface {
	Save(ctx context.Context, app domain.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (domain.Application, error)
	FindByCertificateNumber(ctx context.Context, certNo string) (domain.Application, error)
}

type DrivingTestStore interface {
	Save(ctx context.Context, result domain.DrivingTestResult) error
	FindByApplication(ctx context.Context, appID id.ApplicationID) (domain.DrivingTestResult, error)
	// Delete removes a result so a retest can start from a fresh draft.
	Delete(ctx context.Context, appID id.ApplicationID) error
}

type MedicalTestStore interface {
	Save(ctx context.Context, result domain.MedicalTestResult) error
	FindByApplication(ctx context.Context, appID id.ApplicationID) (domain.MedicalTestResult, error)
}

type ExamSessionStore interface {
	Save(ctx context.Context, session domain.ExamSession) error
	FindByID(ctx context.Context, sessionID id.SessionID) (domain.ExamSession, error)
	FindByTestUserID(ctx context.Context, testUserID string) (domain.ExamSession, error)
}

// LoginAttemptStore is append-only: attempts are never mutated or deleted,
// only appended and counted over trailing windows.
type LoginAttemptStore interface {
	Append(ctx context.Context, attempt domain.LoginAttempt) error
	CountFailuresSince(ctx context.Context, credential string, since time.Time) (int, error)
}
