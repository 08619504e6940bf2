// Package examsession runs the remote traffic-law exam: scheduling of
// one-time credentials, the hardened login path, per-question answer
// capture, and the exactly-once finalization that feeds the scaled score
// into the candidate's driving test record.
package examsession

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"drivecert/internal/domain"
	"drivecert/internal/examsession/lockout"
	"drivecert/internal/examsession/metrics"
	"drivecert/internal/examsession/questionbank"
	"drivecert/internal/platform/config"
	"drivecert/internal/skilltest"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

// QuestionView is a question as shown to the candidate: option texts in
// presentation order, selected by position. Option keys stay server-side.
type QuestionView struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// FinalScore is the outcome of a finalized exam.
type FinalScore struct {
	SessionID   id.SessionID `json:"session_id"`
	Correct     int          `json:"correct"`
	Presented   int          `json:"presented"`
	Scaled      int          `json:"scaled"`
	Passed      bool         `json:"passed"`
	CompletedAt time.Time    `json:"completed_at"`
}

// LoginResult is returned from a successful login. For an active session it
// carries the ticket, the question set and the authoritative deadline; for a
// completed session it carries only the stored final score.
type LoginResult struct {
	SessionID id.SessionID         `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
	Ticket    string               `json:"ticket,omitempty"`
	Questions []QuestionView       `json:"questions,omitempty"`
	Deadline  *time.Time           `json:"deadline,omitempty"`
	// Remaining is advisory for client countdowns; the deadline governs.
	Remaining time.Duration `json:"remaining_seconds,omitempty"`
	Final     *FinalScore   `json:"final,omitempty"`
}

// Service orchestrates exam sessions.
type Service struct {
	sessions storage.ExamSessionStore
	driving  storage.DrivingTestStore
	attempts storage.LoginAttemptStore
	bank     questionbank.Provider
	lockouts *lockout.Service
	tickets  *TicketIssuer
	config   config.ExamConfig

	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics

	// completionMu serializes finalization so racing submit, answer and
	// deadline paths settle on a single stored score.
	completionMu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(
	sessions storage.ExamSessionStore,
	driving storage.DrivingTestStore,
	attempts storage.LoginAttemptStore,
	bank questionbank.Provider,
	lockouts *lockout.Service,
	tickets *TicketIssuer,
	cfg config.ExamConfig,
	opts ...Option,
) (*Service, error) {
	if sessions == nil || driving == nil || attempts == nil {
		return nil, errors.New("exam session stores are required")
	}
	if bank == nil {
		return nil, errors.New("question bank provider is required")
	}
	if lockouts == nil {
		return nil, errors.New("lockout service is required")
	}
	if tickets == nil {
		return nil, errors.New("ticket issuer is required")
	}

	svc := &Service{
		sessions: sessions,
		driving:  driving,
		attempts: attempts,
		bank:     bank,
		lockouts: lockouts,
		tickets:  tickets,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ScheduleSession creates a not-started session with freshly issued
// credentials. Only the bcrypt hash of the secret key is stored.
func (s *Service) ScheduleSession(ctx context.Context, appID id.ApplicationID, testUserID, secretKey string) (domain.ExamSession, error) {
	if testUserID == "" || secretKey == "" {
		return domain.ExamSession{}, dErrors.New(dErrors.CodeValidation, "test user ID and secret key are required")
	}

	if _, err := s.sessions.FindByTestUserID(ctx, testUserID); err == nil {
		return domain.ExamSession{}, dErrors.New(dErrors.CodeConflict, "credential already scheduled")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing session")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secretKey), bcrypt.DefaultCost)
	if err != nil {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret key")
	}

	now := requestcontext.Now(ctx)
	session := domain.ExamSession{
		ID:            id.NewSessionID(),
		ApplicationID: appID,
		TestUserID:    testUserID,
		SecretKeyHash: string(hash),
		Status:        domain.SessionNotStarted,
		ExpiresAt:     now.Add(s.config.SessionValidity),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save exam session")
	}

	s.log(ctx).Info("exam session scheduled",
		slog.String("session_id", session.ID.String()),
		slog.String("application_id", appID.String()),
	)
	return session, nil
}

// Login authenticates exam credentials behind the lockout service. A first
// successful login draws and shuffles the question set and starts the timer;
// later logins resume the session, and a login after completion returns the
// stored result.
func (s *Service) Login(ctx context.Context, testUserID, secretKey string) (*LoginResult, error) {
	now := requestcontext.Now(ctx)

	check, err := s.lockouts.Check(ctx, testUserID)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		s.metrics.ObserveLogin(metrics.OutcomeLocked)
		if check.HardLocked {
			s.metrics.ObserveLockout()
		}
		return nil, dErrors.Newf(dErrors.CodeLocked, "too many failed attempts; retry in %d seconds", int(check.RetryAfter.Seconds())+1)
	}

	session, err := s.sessions.FindByTestUserID(ctx, testUserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exam session")
	}
	credentialOK := err == nil &&
		bcrypt.CompareHashAndPassword([]byte(session.SecretKeyHash), []byte(secretKey)) == nil

	if !credentialOK {
		return nil, s.failLogin(ctx, testUserID, now)
	}

	// Valid credentials past their validity window are terminal. The
	// attempt is not a guessing signal, so it never feeds the lockout
	// counters.
	if session.Status != domain.SessionCompleted && session.Expired(now) {
		s.metrics.ObserveLogin(metrics.OutcomeExpired)
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.CategorySecurity,
			Timestamp: now,
			Subject:   testUserID,
			Action:    audit.EventExamSessionExpired,
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil, dErrors.New(dErrors.CodeExpired, "exam session has expired")
	}

	if err := s.lockouts.Clear(ctx, testUserID); err != nil {
		s.log(ctx).Warn("failed to clear lockout counters", slog.String("error", err.Error()))
	}
	if err := s.attempts.Append(ctx, domain.LoginAttempt{
		ID:         id.NewAttemptID(),
		Credential: testUserID,
		Success:    true,
		At:         now,
	}); err != nil {
		s.log(ctx).Warn("failed to record login attempt", slog.String("error", err.Error()))
	}
	s.metrics.ObserveLogin(metrics.OutcomeSuccess)
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: now,
		Subject:   testUserID,
		Action:    audit.EventExamLoginSucceeded,
		Outcome:   string(session.Status),
		RequestID: requestcontext.RequestID(ctx),
	})

	switch session.Status {
	case domain.SessionNotStarted:
		session, err = s.start(ctx, session, now)
		if err != nil {
			return nil, err
		}
	case domain.SessionInProgress:
		if now.After(session.Deadline(s.config.Duration)) {
			final, err := s.finalize(ctx, session.ID, "deadline elapsed")
			if err != nil {
				return nil, err
			}
			return &LoginResult{SessionID: session.ID, Status: domain.SessionCompleted, Final: final}, nil
		}
	case domain.SessionCompleted:
		final, err := s.storedFinal(ctx, session)
		if err != nil {
			return nil, err
		}
		return &LoginResult{SessionID: session.ID, Status: domain.SessionCompleted, Final: final}, nil
	}

	deadline := session.Deadline(s.config.Duration)
	ticket, err := s.tickets.Issue(session.ID, now, deadline)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, len(session.Questions))
	for i, q := range session.Questions {
		views[i] = QuestionView{QuestionID: q.QuestionID, Text: q.Text, Options: q.Presented}
	}

	return &LoginResult{
		SessionID: session.ID,
		Status:    session.Status,
		Ticket:    ticket,
		Questions: views,
		Deadline:  &deadline,
		Remaining: deadline.Sub(now),
	}, nil
}

// Sustained guessing can burn through the lockout's short windows, so the
// append-only attempt log backs a slower security signal that a successful
// login in between does not reset.
const (
	abuseWindow    = 10 * time.Minute
	abuseThreshold = 5
)

func (s *Service) failLogin(ctx context.Context, testUserID string, now time.Time) error {
	if _, err := s.lockouts.RecordFailure(ctx, testUserID); err != nil {
		s.log(ctx).Error("failed to record login failure", slog.String("error", err.Error()))
	}
	if err := s.attempts.Append(ctx, domain.LoginAttempt{
		ID:         id.NewAttemptID(),
		Credential: testUserID,
		Success:    false,
		At:         now,
	}); err != nil {
		s.log(ctx).Warn("failed to record login attempt", slog.String("error", err.Error()))
	}
	if failures, err := s.attempts.CountFailuresSince(ctx, testUserID, now.Add(-abuseWindow)); err != nil {
		s.log(ctx).Warn("failed to count login failures", slog.String("error", err.Error()))
	} else if failures >= abuseThreshold {
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:  audit.CategorySecurity,
			Timestamp: now,
			Subject:   testUserID,
			Action:    audit.EventExamCredentialAbuse,
			Outcome:   strconv.Itoa(failures),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	s.metrics.ObserveLogin(metrics.OutcomeInvalid)
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: now,
		Subject:   testUserID,
		Action:    audit.EventExamLoginFailed,
		RequestID: requestcontext.RequestID(ctx),
	})
	// One generic message for unknown credentials and wrong secrets.
	return dErrors.New(dErrors.CodeUnauthorized, "invalid exam credentials")
}

// start draws the question set, shuffles each question's options and stamps
// the timer. The shuffle is fixed for the life of the session.
func (s *Service) start(ctx context.Context, session domain.ExamSession, now time.Time) (domain.ExamSession, error) {
	pool, err := s.bank.ActiveQuestions(ctx)
	if err != nil {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load question pool")
	}
	if len(pool) < s.config.QuestionsPerExam {
		return domain.ExamSession{}, dErrors.Newf(dErrors.CodeInternal, "question pool holds %d questions, need %d", len(pool), s.config.QuestionsPerExam)
	}

	rng := newRNG()
	drawn := drawQuestions(pool, s.config.QuestionsPerExam, rng)
	session.Questions = make([]domain.SessionQuestion, len(drawn))
	for i, q := range drawn {
		session.Questions[i] = presentQuestion(q, rng)
	}

	started := now
	session.StartedAt = &started
	session.Status = domain.SessionInProgress
	session.Answers = make(map[string]int)

	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save exam session")
	}

	s.log(ctx).Info("exam started",
		slog.String("session_id", session.ID.String()),
		slog.Int("questions", len(session.Questions)),
	)
	return session, nil
}

// SubmitAnswer records one selection by presented position. Answers may be
// revised until the session completes. The whole update runs under the
// completion lock so a racing finalization can never be overwritten by a
// stale in-progress copy.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID id.SessionID, questionID string, position int) error {
	s.completionMu.Lock()
	defer s.completionMu.Unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == domain.SessionCompleted {
		return dErrors.New(dErrors.CodeConflict, "exam session already completed")
	}
	if session.Status != domain.SessionInProgress {
		return dErrors.New(dErrors.CodeConflict, "exam session has not started")
	}

	now := requestcontext.Now(ctx)
	if now.After(session.Deadline(s.config.Duration)) {
		if _, err := s.finalizeLocked(ctx, session, "deadline elapsed"); err != nil {
			return err
		}
		return dErrors.New(dErrors.CodeConflict, "exam session already completed")
	}

	question, ok := session.QuestionByID(questionID)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "question is not part of this session")
	}
	if position < 0 || position >= len(question.Presented) {
		return dErrors.Newf(dErrors.CodeValidation, "answer position must be between 0 and %d", len(question.Presented)-1)
	}

	if session.Answers == nil {
		session.Answers = make(map[string]int)
	}
	session.Answers[questionID] = position
	if err := s.sessions.Save(ctx, session); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save answer")
	}
	return nil
}

// Submit merges any final answers and finalizes the session. Submitting an
// already-completed session is not an error; the stored result comes back.
// Merge and finalization share one critical section, so the session state
// cannot change between the two.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID, answers map[string]int) (*FinalScore, error) {
	s.completionMu.Lock()
	defer s.completionMu.Unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionNotStarted {
		return nil, dErrors.New(dErrors.CodeConflict, "exam session has not started")
	}

	if session.Status == domain.SessionInProgress && len(answers) > 0 {
		now := requestcontext.Now(ctx)
		if !now.After(session.Deadline(s.config.Duration)) {
			for questionID, position := range answers {
				question, ok := session.QuestionByID(questionID)
				if !ok {
					return nil, dErrors.New(dErrors.CodeNotFound, "question is not part of this session")
				}
				if position < 0 || position >= len(question.Presented) {
					return nil, dErrors.Newf(dErrors.CodeValidation, "answer position must be between 0 and %d", len(question.Presented)-1)
				}
				if session.Answers == nil {
					session.Answers = make(map[string]int)
				}
				session.Answers[questionID] = position
			}
			if err := s.sessions.Save(ctx, session); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save answers")
			}
		}
	}

	return s.finalizeLocked(ctx, session, "candidate submission")
}

// CompleteIfDue finalizes an in-progress session whose deadline has passed.
// Intended for the sweeper; a live session is left untouched.
func (s *Service) CompleteIfDue(ctx context.Context, sessionID id.SessionID) (*FinalScore, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, nil
	}
	if !requestcontext.Now(ctx).After(session.Deadline(s.config.Duration)) {
		return nil, nil
	}
	return s.finalize(ctx, sessionID, "deadline elapsed")
}

// finalize locks, re-reads and completes a session exactly once. Racing
// submit and deadline paths converge on the first writer's result.
func (s *Service) finalize(ctx context.Context, sessionID id.SessionID, reason string) (*FinalScore, error) {
	s.completionMu.Lock()
	defer s.completionMu.Unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finalizeLocked(ctx, session, reason)
}

// finalizeLocked scores and completes a session. The caller holds
// completionMu and has loaded the session inside the critical section.
func (s *Service) finalizeLocked(ctx context.Context, session domain.ExamSession, reason string) (*FinalScore, error) {
	if session.Status == domain.SessionCompleted {
		return s.storedFinal(ctx, session)
	}
	if session.Status != domain.SessionInProgress {
		return nil, dErrors.New(dErrors.CodeConflict, "exam session has not started")
	}

	correct, err := s.countCorrect(ctx, session)
	if err != nil {
		return nil, err
	}
	presented := len(session.Questions)
	scaled := skilltest.ScaleTraffic(correct, presented)

	// An auto-submit records the deadline itself, not the trigger time.
	completedAt := requestcontext.Now(ctx)
	if deadline := session.Deadline(s.config.Duration); completedAt.After(deadline) {
		completedAt = deadline
	}

	session.Status = domain.SessionCompleted
	session.CompletedAt = &completedAt
	session.Score = &scaled
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save exam session")
	}

	s.propagateTraffic(ctx, session, correct, presented, scaled)

	s.metrics.ObserveCompletion(scaled)
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: completedAt,
		Subject:   session.ApplicationID.String(),
		Action:    audit.EventExamCompleted,
		Outcome:   reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	s.log(ctx).Info("exam completed",
		slog.String("session_id", session.ID.String()),
		slog.Int("correct", correct),
		slog.Int("scaled", scaled),
		slog.String("reason", reason),
	)

	return &FinalScore{
		SessionID:   session.ID,
		Correct:     correct,
		Presented:   presented,
		Scaled:      scaled,
		Passed:      scaled >= skilltest.TrafficPassMark,
		CompletedAt: completedAt,
	}, nil
}

// countCorrect resolves each answered position through the retained
// position-to-key mapping and asks the bank to validate the key. Unanswered
// questions score zero.
func (s *Service) countCorrect(ctx context.Context, session domain.ExamSession) (int, error) {
	correct := 0
	for _, q := range session.Questions {
		position, answered := session.Answers[q.QuestionID]
		if !answered {
			continue
		}
		key := q.ResolveSelection(position)
		if key == "" {
			continue
		}
		ok, err := s.bank.Validate(ctx, q.QuestionID, key)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate answer")
		}
		if ok {
			correct++
		}
	}
	return correct, nil
}

// propagateTraffic writes the exam outcome into the application's driving
// test draft. A missing draft is fine; the score lands when the test center
// later creates one from the recorded session. A submitted result is locked
// and left alone.
func (s *Service) propagateTraffic(ctx context.Context, session domain.ExamSession, correct, presented, scaled int) {
	result, err := s.driving.FindByApplication(ctx, session.ApplicationID)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.log(ctx).Error("failed to load driving test draft", slog.String("error", err.Error()))
		return
	}
	if result.Submitted() {
		s.log(ctx).Warn("driving test already submitted; exam score not propagated",
			slog.String("application_id", session.ApplicationID.String()))
		return
	}

	result.Traffic = domain.TrafficScore{
		Correct:   correct,
		Presented: presented,
		Scaled:    scaled,
		Passed:    scaled >= skilltest.TrafficPassMark,
	}
	result.UpdatedAt = requestcontext.Now(ctx)
	if err := s.driving.Save(ctx, result); err != nil {
		s.log(ctx).Error("failed to propagate exam score", slog.String("error", err.Error()))
	}
}

func (s *Service) storedFinal(ctx context.Context, session domain.ExamSession) (*FinalScore, error) {
	if session.Score == nil || session.CompletedAt == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "completed session has no stored score")
	}
	// Answers are frozen at completion, so re-counting is deterministic.
	correct, err := s.countCorrect(ctx, session)
	if err != nil {
		return nil, err
	}
	return &FinalScore{
		SessionID:   session.ID,
		Correct:     correct,
		Presented:   len(session.Questions),
		Scaled:      *session.Score,
		Passed:      *session.Score >= skilltest.TrafficPassMark,
		CompletedAt: *session.CompletedAt,
	}, nil
}

func (s *Service) load(ctx context.Context, sessionID id.SessionID) (domain.ExamSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ExamSession{}, dErrors.New(dErrors.CodeNotFound, "exam session not found")
	}
	if err != nil {
		return domain.ExamSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exam session")
	}
	return session, nil
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger.With(slog.String("request_id", requestcontext.RequestID(ctx)))
}
