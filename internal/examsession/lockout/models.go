// Package lockout implements the credential-guessing defenses for exam
// logins: a per-credential exponential backoff driven by consecutive
// failures, and an independent server-side rate limit that imposes a flat
// hard lock once tripped.
package lockout

import "time"

// Record tracks lockout state for one exam credential. Counters are keyed
// storage, never process globals, so enforcement holds across service
// instances.
type Record struct {
	Credential string `json:"credential"`
	// FailureCount counts consecutive failures; reset by a successful login.
	FailureCount  int       `json:"failure_count"`
	LastFailureAt time.Time `json:"last_failure_at"`
	// WindowCount counts failures inside the current rate-limit window and
	// is never reset by success, only by window expiry.
	WindowCount int       `json:"window_count"`
	WindowStart time.Time `json:"window_start"`
	// HardLockedUntil is set when the server-side rate limit trips.
	HardLockedUntil *time.Time `json:"hard_locked_until,omitempty"`
}

// HardLockedAt reports whether the flat lockout is in force at now.
func (r *Record) HardLockedAt(now time.Time) bool {
	return r.HardLockedUntil != nil && now.Before(*r.HardLockedUntil)
}

// Result is the outcome of a lockout check.
type Result struct {
	Allowed bool
	// RetryAfter is how long the caller must wait when not allowed.
	RetryAfter time.Duration
	// HardLocked distinguishes the flat rate-limit lock from backoff.
	HardLocked bool
}
