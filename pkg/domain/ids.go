// Package domain defines the typed identifiers shared across the
// certification engine. Each entity gets its own UUID-backed type so an
// application ID can never be passed where an exam session ID is expected;
// the compiler enforces what would otherwise be a runtime mixup.
package domain

import (
	"github.com/google/uuid"

	dErrors "drivecert/pkg/domain-errors"
)

// ApplicationID identifies a driver's certification request.
type ApplicationID uuid.UUID

// ResultID identifies a driving or medical test result.
type ResultID uuid.UUID

// SessionID identifies a remote traffic-law exam session.
type SessionID uuid.UUID

// AttemptID identifies one append-only login attempt record.
type AttemptID uuid.UUID

// NewApplicationID returns a fresh random ApplicationID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewResultID returns a fresh random ResultID.
func NewResultID() ResultID { return ResultID(uuid.New()) }

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewAttemptID returns a fresh random AttemptID.
func NewAttemptID() AttemptID { return AttemptID(uuid.New()) }

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ResultID) String() string      { return uuid.UUID(id).String() }
func (id SessionID) String() string     { return uuid.UUID(id).String() }
func (id AttemptID) String() string     { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id ApplicationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ResultID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// ParseApplicationID validates and returns an ApplicationID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// ParseResultID validates and returns a ResultID.
func ParseResultID(s string) (ResultID, error) {
	u, err := parseUUID(s, "result id")
	if err != nil {
		return ResultID{}, err
	}
	return ResultID(u), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is the nil UUID", what)
	}
	return u, nil
}
