// Package audit captures key domain actions as structured events. Emission is
// best-effort: a failed or dropped audit write must never block or fail the
// primary operation it describes.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// test submissions, approvals, certificate issuance.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// exam login failures, lockouts, expired-session attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for operational visibility:
	// verification queries, session lifecycle.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// Subject identifies what the event is about: an application ID, a
	// certificate number, or an exam credential (never a secret).
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Domain event actions.
const (
	EventDrivingTestSubmitted = "driving_test_submitted"
	EventMedicalTestSubmitted = "medical_test_submitted"
	EventDrivingTestReset     = "driving_test_reset"
	EventApplicationApproved  = "application_approved"
	EventApplicationRejected  = "application_rejected"
	EventCertificateIssued    = "certificate_issued"

	EventExamLoginSucceeded  = "exam_login_succeeded"
	EventExamLoginFailed     = "exam_login_failed"
	EventExamLockout         = "exam_lockout_triggered"
	EventExamCredentialAbuse = "exam_credential_abuse"
	EventExamSessionExpired  = "exam_session_expired"
	EventExamCompleted       = "exam_completed"

	EventCertificateVerified = "certificate_verified"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher accepts events from domain services. Implementations must not
// block the caller.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Log emits an audit event through the publisher and mirrors it to the
// logger. Both sinks are optional and best-effort; errors are logged, never
// returned, so audit wiring can never fail a domain operation.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event) {
	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"category", string(event.Category),
			"action", event.Action,
			"subject", event.Subject,
			"outcome", event.Outcome,
			"reason", event.Reason,
		)
	}
	if publisher != nil {
		if err := publisher.Emit(ctx, event); err != nil && logger != nil {
			logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
		}
	}
}
