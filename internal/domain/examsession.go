package domain

import (
	"time"

	id "drivecert/pkg/domain"
)

// SessionStatus is the exam session state. Completed is terminal; there is no
// path back.
type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// SessionQuestion is one question as presented to a candidate: the option
// texts in shuffled order, plus the retained mapping from presented position
// back to the original option key. The correct key never appears here; only
// the question bank can validate an answer.
type SessionQuestion struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	// Presented holds the option texts in presentation order.
	Presented []string `json:"presented"`
	// OriginalKeys[i] is the bank's option key shown at position i.
	// Stored once at session start; scoring must use this mapping, never a
	// recomputed shuffle.
	OriginalKeys []string `json:"original_keys"`
}

// ResolveSelection maps a presented position (0-based) back to the original
// option key. Returns "" for an out-of-range position.
func (q SessionQuestion) ResolveSelection(position int) string {
	if position < 0 || position >= len(q.OriginalKeys) {
		return ""
	}
	return q.OriginalKeys[position]
}

// ExamSession is one scheduled traffic-law exam. Created by a test center
// when scheduling; mutated only through the candidate's session; terminal
// once completed.
type ExamSession struct {
	ID            id.SessionID     `json:"id"`
	ApplicationID id.ApplicationID `json:"application_id"`

	TestUserID    string `json:"test_user_id"`
	SecretKeyHash string `json:"-"` // bcrypt; plaintext never stored

	Status      SessionStatus `json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	ExpiresAt   time.Time     `json:"expires_at"`

	Questions []SessionQuestion `json:"questions,omitempty"`
	// Answers maps question ID to the candidate's presented-position choice.
	Answers map[string]int `json:"answers,omitempty"`
	Score   *int           `json:"score,omitempty"` // scaled 0-20, set on completion
}

// Expired reports whether the scheduled credentials are past their validity.
func (s *ExamSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Deadline returns the authoritative submission deadline, valid only once the
// session has started.
func (s *ExamSession) Deadline(duration time.Duration) time.Time {
	if s.StartedAt == nil {
		return time.Time{}
	}
	return s.StartedAt.Add(duration)
}

// QuestionByID finds a presented question by its bank ID.
func (s *ExamSession) QuestionByID(questionID string) (SessionQuestion, bool) {
	for _, q := range s.Questions {
		if q.QuestionID == questionID {
			return q, true
		}
	}
	return SessionQuestion{}, false
}

// LoginAttempt is an append-only record of one credential presentation.
// Never mutated or deleted; only appended and counted over trailing windows.
type LoginAttempt struct {
	ID         id.AttemptID `json:"id"`
	Credential string       `json:"credential"` // test_user_id, not the secret
	Success    bool         `json:"success"`
	At         time.Time    `json:"at"`
}
