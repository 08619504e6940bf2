package lockout

import (
	"context"
	"sync"
	"time"
)

// Store persists lockout records. RecordFailure must be atomic
// (check-then-increment) so two racing requests cannot both slip past a
// lockout check.
type Store interface {
	RecordFailure(ctx context.Context, credential string, now time.Time) (*Record, error)
	Get(ctx context.Context, credential string) (*Record, error)
	// ResetFailures zeroes the consecutive-failure counter after a
	// successful login. The rate window deliberately survives.
	ResetFailures(ctx context.Context, credential string) error
	SetHardLock(ctx context.Context, credential string, until time.Time) error
}

// InMemoryStore keeps lockout records under one mutex, which makes the
// check-then-increment atomic within a process.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	window  time.Duration
}

// NewMemory builds a memory store; window is the rate-limit window after
// which WindowCount restarts.
func NewMemory(window time.Duration) *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*Record),
		window:  window,
	}
}

func (s *InMemoryStore) RecordFailure(_ context.Context, credential string, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[credential]
	if !ok {
		record = &Record{Credential: credential, WindowStart: now}
		s.records[credential] = record
	}

	if now.Sub(record.WindowStart) >= s.window {
		record.WindowStart = now
		record.WindowCount = 0
	}

	record.FailureCount++
	record.WindowCount++
	record.LastFailureAt = now

	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) Get(_ context.Context, credential string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[credential]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) ResetFailures(_ context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[credential]; ok {
		record.FailureCount = 0
	}
	return nil
}

func (s *InMemoryStore) SetHardLock(_ context.Context, credential string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[credential]
	if !ok {
		record = &Record{Credential: credential, WindowStart: until}
		s.records[credential] = record
	}
	record.HardLockedUntil = &until
	return nil
}
