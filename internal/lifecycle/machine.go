// Package lifecycle governs an application's progress from submission to
// certification. The machine itself is pure domain logic; the service applies
// transitions to stored applications.
package lifecycle

import (
	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

// Event is an externally triggered lifecycle transition. Test submissions are
// not events: their transitions are driven by the scoring outcome at the
// moment of submission.
type Event string

const (
	EventRequestAdminReview Event = "request_admin_review"
	EventApprove            Event = "approve"
	EventReject             Event = "reject"
)

// ParseEvent validates an event name.
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	switch e {
	case EventRequestAdminReview, EventApprove, EventReject:
		return e, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown lifecycle event %q", s)
}

// CanSubmitDriving reports whether the application is awaiting a driving
// test. The tests may run in either order, so a medical-stage status still
// accepts a driving submission as long as no driving outcome is recorded.
func CanSubmitDriving(app domain.Application) bool {
	switch app.Status {
	case domain.StatusSubmitted:
		return true
	case domain.StatusMedicalTestCompleted, domain.StatusMedicalTestFailed:
		return app.SkillGrade == nil
	}
	return false
}

// CanSubmitMedical reports whether the application can take the medical exam.
// Medical testing may proceed even when the driving test has not passed;
// certification later requires both.
func CanSubmitMedical(app domain.Application) bool {
	switch app.Status {
	case domain.StatusSubmitted, domain.StatusDrivingTestCompleted, domain.StatusDrivingTestFailed:
		return true
	}
	return false
}

// DrivingOutcome maps the scoring module's overall pass to the next state. A
// failure always lands on driving_test_failed so the reset path can find it.
// A pass on an application whose medical stage already concluded restores the
// medical stage's status, keeping admin review reachable.
func DrivingOutcome(app domain.Application, passed bool) domain.ApplicationStatus {
	if !passed {
		return domain.StatusDrivingTestFailed
	}
	if app.MedicalFitness != nil {
		return MedicalOutcome(app.MedicalTestPassed)
	}
	return domain.StatusDrivingTestCompleted
}

// MedicalOutcome maps the fitness outcome to the next state. Conditional
// fitness counts as passing for workflow purposes.
func MedicalOutcome(passed bool) domain.ApplicationStatus {
	if passed {
		return domain.StatusMedicalTestCompleted
	}
	return domain.StatusMedicalTestFailed
}

// Next computes the state the event transitions the application into, or a
// conflict error when the transition is not legal from the current state.
func Next(app domain.Application, event Event) (domain.ApplicationStatus, error) {
	switch event {
	case EventRequestAdminReview:
		if app.Status == domain.StatusMedicalTestCompleted || app.Status == domain.StatusMedicalTestFailed {
			return domain.StatusAdminReview, nil
		}
	case EventApprove:
		if app.Status != domain.StatusAdminReview {
			break
		}
		if !app.DrivingTestPassed {
			return "", dErrors.New(dErrors.CodeConflict, "driving test not passed")
		}
		if !app.MedicalTestPassed {
			return "", dErrors.New(dErrors.CodeConflict, "medical test not passed")
		}
		if !app.Identity.Complete() {
			return "", dErrors.New(dErrors.CodeConflict, "identity not verified")
		}
		return domain.StatusApproved, nil
	case EventReject:
		if app.Status == domain.StatusAdminReview {
			return domain.StatusRejected, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeConflict, "cannot %s from state %s", event, app.Status)
}
