package examsession

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/domain"
	"drivecert/internal/examsession/lockout"
	"drivecert/internal/examsession/questionbank"
	"drivecert/internal/platform/config"
	"drivecert/internal/storage"
	id "drivecert/pkg/domain"
	dErrors "drivecert/pkg/domain-errors"
	"drivecert/pkg/platform/audit"
	"drivecert/pkg/requestcontext"
)

const testSecret = "one-time-secret"

type ServiceSuite struct {
	suite.Suite
	sessions *storage.InMemoryExamSessionStore
	driving  *storage.InMemoryDrivingTestStore
	attempts *storage.InMemoryLoginAttemptStore
	provider *questionbank.StaticProvider
	service  *Service

	cfg config.ExamConfig
	now time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	full := config.Default()
	s.cfg = full.Exam
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s.sessions = storage.NewInMemoryExamSessionStore()
	s.driving = storage.NewInMemoryDrivingTestStore()
	s.attempts = storage.NewInMemoryLoginAttemptStore()

	// every question answers "a" so scoring is predictable
	questions := make([]domain.Question, s.cfg.PoolSize)
	answers := make(map[string]string, s.cfg.PoolSize)
	for i := range questions {
		qid := fmt.Sprintf("q%02d", i)
		questions[i] = domain.Question{
			ID:   qid,
			Text: fmt.Sprintf("question %d", i),
			Options: map[string]string{
				"a": qid + " right", "b": qid + " wrong b",
				"c": qid + " wrong c", "d": qid + " wrong d",
			},
			Active: true,
		}
		answers[qid] = "a"
	}
	s.provider = questionbank.NewStatic(questions, answers)

	lockouts, err := lockout.New(lockout.NewMemory(full.Lockout.RateLimitWindow), full.Lockout)
	s.Require().NoError(err)
	tickets, err := NewTicketIssuer([]byte("test-key"))
	s.Require().NoError(err)

	s.service, err = New(s.sessions, s.driving, s.attempts, s.provider, lockouts, tickets, s.cfg)
	s.Require().NoError(err)
}

func (s *ServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) schedule(user string) domain.ExamSession {
	session, err := s.service.ScheduleSession(s.ctxAt(s.now), id.NewApplicationID(), user, testSecret)
	s.Require().NoError(err)
	return session
}

// answerCorrectly submits the right option for n of the presented questions
// by looking up each question's position-to-key mapping.
func (s *ServiceSuite) answerCorrectly(ctx context.Context, sessionID id.SessionID, n int) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	s.Require().NoError(err)
	for i := 0; i < n; i++ {
		q := session.Questions[i]
		position := -1
		for pos := range q.OriginalKeys {
			if q.ResolveSelection(pos) == "a" {
				position = pos
				break
			}
		}
		s.Require().GreaterOrEqual(position, 0)
		s.Require().NoError(s.service.SubmitAnswer(ctx, sessionID, q.QuestionID, position))
	}
}

func (s *ServiceSuite) TestScheduleSession() {
	s.Run("stores only the secret hash", func() {
		session := s.schedule("driver-01")
		s.NotEmpty(session.SecretKeyHash)
		s.NotContains(session.SecretKeyHash, testSecret)
		s.Equal(domain.SessionNotStarted, session.Status)
		s.Equal(s.now.Add(s.cfg.SessionValidity), session.ExpiresAt)
	})

	s.Run("duplicate credential is a conflict", func() {
		_, err := s.service.ScheduleSession(s.ctxAt(s.now), id.NewApplicationID(), "driver-01", "other")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("blank credentials are rejected", func() {
		_, err := s.service.ScheduleSession(s.ctxAt(s.now), id.NewApplicationID(), "", testSecret)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestLogin() {
	s.Run("first login draws the paper and starts the clock", func() {
		s.schedule("driver-02")

		result, err := s.service.Login(s.ctxAt(s.now), "driver-02", testSecret)
		s.Require().NoError(err)
		s.Equal(domain.SessionInProgress, result.Status)
		s.NotEmpty(result.Ticket)
		s.Len(result.Questions, s.cfg.QuestionsPerExam)
		s.Require().NotNil(result.Deadline)
		s.Equal(s.now.Add(s.cfg.Duration), *result.Deadline)

		// candidates see option texts only, never bank keys
		for _, q := range result.Questions {
			s.Len(q.Options, 4)
		}
	})

	s.Run("second login resumes with the same paper", func() {
		s.schedule("driver-03")
		first, err := s.service.Login(s.ctxAt(s.now), "driver-03", testSecret)
		s.Require().NoError(err)

		second, err := s.service.Login(s.ctxAt(s.now.Add(time.Minute)), "driver-03", testSecret)
		s.Require().NoError(err)
		s.Equal(first.SessionID, second.SessionID)
		s.Equal(*first.Deadline, *second.Deadline)
		for i := range first.Questions {
			s.Equal(first.Questions[i].QuestionID, second.Questions[i].QuestionID)
			s.Equal(first.Questions[i].Options, second.Questions[i].Options)
		}
	})

	s.Run("wrong secret is unauthorized and recorded", func() {
		s.schedule("driver-04")

		_, err := s.service.Login(s.ctxAt(s.now), "driver-04", "guess")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		failures, err := s.attempts.CountFailuresSince(s.ctxAt(s.now), "driver-04", s.now.Add(-time.Minute))
		s.Require().NoError(err)
		s.Equal(1, failures)
	})

	s.Run("unknown user gets the same generic rejection", func() {
		_, err := s.service.Login(s.ctxAt(s.now), "nobody", "guess")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.ErrorContains(err, "invalid exam credentials")
	})

	s.Run("repeated failures trigger backoff", func() {
		s.schedule("driver-05")
		ctx := s.ctxAt(s.now)
		for i := 0; i < 3; i++ {
			_, err := s.service.Login(ctx, "driver-05", "guess")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}

		_, err := s.service.Login(ctx, "driver-05", testSecret)
		s.True(dErrors.HasCode(err, dErrors.CodeLocked))

		// after the backoff the valid secret works
		_, err = s.service.Login(s.ctxAt(s.now.Add(time.Minute)), "driver-05", testSecret)
		s.NoError(err)
	})

	s.Run("expired credentials are terminal and do not feed lockout", func() {
		s.schedule("driver-06")
		late := s.now.Add(s.cfg.SessionValidity + time.Hour)

		for i := 0; i < 5; i++ {
			_, err := s.service.Login(s.ctxAt(late), "driver-06", testSecret)
			s.True(dErrors.HasCode(err, dErrors.CodeExpired), "attempt %d", i)
		}
	})
}

func (s *ServiceSuite) TestAnswerAndSubmit() {
	s.Run("full exam scores and propagates", func() {
		session := s.schedule("driver-07")
		appID := session.ApplicationID

		s.Require().NoError(s.driving.Save(s.ctxAt(s.now), domain.DrivingTestResult{
			ID:            id.NewResultID(),
			ApplicationID: appID,
			CreatedAt:     s.now,
		}))

		result, err := s.service.Login(s.ctxAt(s.now), "driver-07", testSecret)
		s.Require().NoError(err)

		ctx := s.ctxAt(s.now.Add(10 * time.Minute))
		s.answerCorrectly(ctx, result.SessionID, 18)

		final, err := s.service.Submit(ctx, result.SessionID, nil)
		s.Require().NoError(err)
		s.Equal(18, final.Correct)
		s.Equal(20, final.Presented)
		s.Equal(18, final.Scaled)
		s.True(final.Passed)

		draft, err := s.driving.FindByApplication(ctx, appID)
		s.Require().NoError(err)
		s.Equal(18, draft.Traffic.Scaled)
		s.True(draft.Traffic.Passed)
		s.Nil(draft.SubmittedAt)
	})

	s.Run("submission is idempotent", func() {
		s.schedule("driver-08")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-08", testSecret)
		s.Require().NoError(err)

		ctx := s.ctxAt(s.now.Add(5 * time.Minute))
		s.answerCorrectly(ctx, result.SessionID, 12)

		first, err := s.service.Submit(ctx, result.SessionID, nil)
		s.Require().NoError(err)

		second, err := s.service.Submit(s.ctxAt(s.now.Add(6*time.Minute)), result.SessionID, nil)
		s.Require().NoError(err)
		s.Equal(first.Scaled, second.Scaled)
		s.Equal(first.CompletedAt, second.CompletedAt)
	})

	s.Run("answers can be revised until submission", func() {
		s.schedule("driver-09")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-09", testSecret)
		s.Require().NoError(err)

		ctx := s.ctxAt(s.now.Add(time.Minute))
		session, err := s.sessions.FindByID(ctx, result.SessionID)
		s.Require().NoError(err)
		q := session.Questions[0]

		wrong := -1
		right := -1
		for pos := range q.OriginalKeys {
			if q.ResolveSelection(pos) == "a" {
				right = pos
			} else if wrong < 0 {
				wrong = pos
			}
		}
		s.Require().NoError(s.service.SubmitAnswer(ctx, result.SessionID, q.QuestionID, wrong))
		s.Require().NoError(s.service.SubmitAnswer(ctx, result.SessionID, q.QuestionID, right))

		final, err := s.service.Submit(ctx, result.SessionID, nil)
		s.Require().NoError(err)
		s.Equal(1, final.Correct)
	})

	s.Run("answer for a foreign question is rejected", func() {
		s.schedule("driver-10")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-10", testSecret)
		s.Require().NoError(err)

		err = s.service.SubmitAnswer(s.ctxAt(s.now), result.SessionID, "not-in-session", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("out-of-range position is rejected", func() {
		s.schedule("driver-11")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-11", testSecret)
		s.Require().NoError(err)

		qid := result.Questions[0].QuestionID
		err = s.service.SubmitAnswer(s.ctxAt(s.now), result.SessionID, qid, 4)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestDeadline() {
	s.Run("late answers finalize the session instead", func() {
		s.schedule("driver-12")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-12", testSecret)
		s.Require().NoError(err)

		early := s.ctxAt(s.now.Add(10 * time.Minute))
		s.answerCorrectly(early, result.SessionID, 15)

		late := s.ctxAt(s.now.Add(s.cfg.Duration + time.Minute))
		err = s.service.SubmitAnswer(late, result.SessionID, result.Questions[0].QuestionID, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		session, err := s.sessions.FindByID(late, result.SessionID)
		s.Require().NoError(err)
		s.Equal(domain.SessionCompleted, session.Status)
		// completion is recorded at the deadline, not the trigger
		s.Require().NotNil(session.CompletedAt)
		s.Equal(s.now.Add(s.cfg.Duration), *session.CompletedAt)
		s.Require().NotNil(session.Score)
		s.Equal(15, *session.Score)
	})

	s.Run("login after the deadline returns the auto-submitted result", func() {
		s.schedule("driver-13")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-13", testSecret)
		s.Require().NoError(err)

		s.answerCorrectly(s.ctxAt(s.now.Add(time.Minute)), result.SessionID, 11)

		late, err := s.service.Login(s.ctxAt(s.now.Add(time.Hour)), "driver-13", testSecret)
		s.Require().NoError(err)
		s.Equal(domain.SessionCompleted, late.Status)
		s.Require().NotNil(late.Final)
		s.Equal(11, late.Final.Scaled)
		s.False(late.Final.Passed)
		s.Empty(late.Questions)
	})

	s.Run("late submit still lands on the deadline score", func() {
		s.schedule("driver-14")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-14", testSecret)
		s.Require().NoError(err)

		s.answerCorrectly(s.ctxAt(s.now.Add(time.Minute)), result.SessionID, 20)

		final, err := s.service.Submit(s.ctxAt(s.now.Add(2*time.Hour)), result.SessionID, nil)
		s.Require().NoError(err)
		s.Equal(20, final.Scaled)
		s.Equal(s.now.Add(s.cfg.Duration), final.CompletedAt)
	})

	s.Run("answers carried by a late submit are discarded", func() {
		s.schedule("driver-15")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-15", testSecret)
		s.Require().NoError(err)

		early := s.ctxAt(s.now.Add(time.Minute))
		s.answerCorrectly(early, result.SessionID, 10)

		session, err := s.sessions.FindByID(early, result.SessionID)
		s.Require().NoError(err)
		extra := session.Questions[10]
		position := -1
		for pos := range extra.OriginalKeys {
			if extra.ResolveSelection(pos) == "a" {
				position = pos
				break
			}
		}
		s.Require().GreaterOrEqual(position, 0)

		final, err := s.service.Submit(s.ctxAt(s.now.Add(time.Hour)), result.SessionID, map[string]int{extra.QuestionID: position})
		s.Require().NoError(err)
		s.Equal(10, final.Correct)
		s.Equal(s.now.Add(s.cfg.Duration), final.CompletedAt)
	})
}

type capturePublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *capturePublisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byAction(action string) []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []audit.Event
	for _, e := range p.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *ServiceSuite) TestCredentialAbuseSignal() {
	publisher := &capturePublisher{}
	full := config.Default()
	lockouts, err := lockout.New(lockout.NewMemory(full.Lockout.RateLimitWindow), full.Lockout)
	s.Require().NoError(err)
	tickets, err := NewTicketIssuer([]byte("test-key"))
	s.Require().NoError(err)
	svc, err := New(s.sessions, s.driving, s.attempts, s.provider, lockouts, tickets, s.cfg,
		WithAuditPublisher(publisher))
	s.Require().NoError(err)

	// Five failures inside the abuse window, spaced to clear each backoff.
	for _, offset := range []time.Duration{0, 0, 0, 31 * time.Second, 92 * time.Second} {
		_, err := svc.Login(s.ctxAt(s.now.Add(offset)), "driver-ghost", "guess")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}

	abuse := publisher.byAction(audit.EventExamCredentialAbuse)
	s.Require().Len(abuse, 1)
	s.Equal("driver-ghost", abuse[0].Subject)
	s.Equal("5", abuse[0].Outcome)
	s.Equal(audit.CategorySecurity, abuse[0].Category)
}

func (s *ServiceSuite) TestCompletionRace() {
	s.Run("racing submit and deadline sweep settle on one stored result", func() {
		s.schedule("driver-16")
		result, err := s.service.Login(s.ctxAt(s.now), "driver-16", testSecret)
		s.Require().NoError(err)

		s.answerCorrectly(s.ctxAt(s.now.Add(time.Minute)), result.SessionID, 7)

		var (
			wg          sync.WaitGroup
			submitFinal *FinalScore
			sweepFinal  *FinalScore
			submitErr   error
			sweepErr    error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			submitFinal, submitErr = s.service.Submit(s.ctxAt(s.now.Add(2*time.Minute)), result.SessionID, nil)
		}()
		go func() {
			defer wg.Done()
			sweepFinal, sweepErr = s.service.CompleteIfDue(s.ctxAt(s.now.Add(s.cfg.Duration+time.Minute)), result.SessionID)
		}()
		wg.Wait()

		s.Require().NoError(submitErr)
		s.Require().NoError(sweepErr)
		s.Require().NotNil(submitFinal)

		// Whichever path won, the stored score is the one every caller sees.
		session, err := s.sessions.FindByID(s.ctxAt(s.now), result.SessionID)
		s.Require().NoError(err)
		s.Equal(domain.SessionCompleted, session.Status)
		s.Require().NotNil(session.Score)
		s.Equal(submitFinal.Scaled, *session.Score)
		s.Equal(submitFinal.CompletedAt, *session.CompletedAt)
		if sweepFinal != nil {
			s.Equal(*submitFinal, *sweepFinal)
		}

		again, err := s.service.Submit(s.ctxAt(s.now.Add(3*time.Hour)), result.SessionID, nil)
		s.Require().NoError(err)
		s.Equal(submitFinal.Scaled, again.Scaled)
		s.Equal(submitFinal.CompletedAt, again.CompletedAt)
	})
}
