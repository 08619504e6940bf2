package storage

import (
	"context"
	"sync"
	"time"

	"drivecert/internal/domain"
	id "drivecert/pkg/domain"
)

// In-memory stores keep the engine testable and are the default wiring. They
// intentionally favor clarity over performance.

type InMemoryApplicationStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]domain.Application
}

func NewInMemoryApplicationStore() *InMemoryApplicationStore {
	return &InMemoryApplicationStore{apps: make(map[id.ApplicationID]domain.Application)}
}

func (s *InMemoryApplicationStore) Save(_ context.Context, app domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
	return nil
}

func (s *InMemoryApplicationStore) FindByID(_ context.Context, appID id.ApplicationID) (domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.apps[appID]; ok {
		return app, nil
	}
	return domain.Application{}, ErrNotFound
}

func (s *InMemoryApplicationStore) FindByCertificateNumber(_ context.Context, certNo string) (domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.CertificateNumber != nil && *app.CertificateNumber == certNo {
			return app, nil
		}
	}
	return domain.Application{}, ErrNotFound
}

type InMemoryDrivingTestStore struct {
	mu      sync.RWMutex
	results map[id.ApplicationID]domain.DrivingTestResult
}

func NewInMemoryDrivingTestStore() *InMemoryDrivingTestStore {
	return &InMemoryDrivingTestStore{results: make(map[id.ApplicationID]domain.DrivingTestResult)}
}

func (s *InMemoryDrivingTestStore) Save(_ context.Context, result domain.DrivingTestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ApplicationID] = result
	return nil
}

func (s *InMemoryDrivingTestStore) FindByApplication(_ context.Context, appID id.ApplicationID) (domain.DrivingTestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[appID]; ok {
		return r, nil
	}
	return domain.DrivingTestResult{}, ErrNotFound
}

func (s *InMemoryDrivingTestStore) Delete(_ context.Context, appID id.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, appID)
	return nil
}

type InMemoryMedicalTestStore struct {
	mu      sync.RWMutex
	results map[id.ApplicationID]domain.MedicalTestResult
}

func NewInMemoryMedicalTestStore() *InMemoryMedicalTestStore {
	return &InMemoryMedicalTestStore{results: make(map[id.ApplicationID]domain.MedicalTestResult)}
}

func (s *InMemoryMedicalTestStore) Save(_ context.Context, result domain.MedicalTestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ApplicationID] = result
	return nil
}

func (s *InMemoryMedicalTestStore) FindByApplication(_ context.Context, appID id.ApplicationID) (domain.MedicalTestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[appID]; ok {
		return r, nil
	}
	return domain.MedicalTestResult{}, ErrNotFound
}

type InMemoryExamSessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]domain.ExamSession
	byUser   map[string]id.SessionID
}

func NewInMemoryExamSessionStore() *InMemoryExamSessionStore {
	return &InMemoryExamSessionStore{
		sessions: make(map[id.SessionID]domain.ExamSession),
		byUser:   make(map[string]id.SessionID),
	}
}

func (s *InMemoryExamSessionStore) Save(_ context.Context, session domain.ExamSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.byUser[session.TestUserID] = session.ID
	return nil
}

func (s *InMemoryExamSessionStore) FindByID(_ context.Context, sessionID id.SessionID) (domain.ExamSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess, nil
	}
	return domain.ExamSession{}, ErrNotFound
}

func (s *InMemoryExamSessionStore) FindByTestUserID(_ context.Context, testUserID string) (domain.ExamSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sessID, ok := s.byUser[testUserID]; ok {
		if sess, ok := s.sessions[sessID]; ok {
			return sess, nil
		}
	}
	return domain.ExamSession{}, ErrNotFound
}

type InMemoryLoginAttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.LoginAttempt
}

func NewInMemoryLoginAttemptStore() *InMemoryLoginAttemptStore {
	return &InMemoryLoginAttemptStore{}
}

func (s *InMemoryLoginAttemptStore) Append(_ context.Context, attempt domain.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *InMemoryLoginAttemptStore) CountFailuresSince(_ context.Context, credential string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.attempts {
		if a.Credential == credential && !a.Success && !a.At.Before(since) {
			count++
		}
	}
	return count, nil
}
