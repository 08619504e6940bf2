package domain

import (
	"time"

	id "drivecert/pkg/domain"
)

// ApplicationStatus is the lifecycle state of a certification request.
type ApplicationStatus string

const (
	StatusSubmitted            ApplicationStatus = "submitted"
	StatusDrivingTestCompleted ApplicationStatus = "driving_test_completed"
	StatusDrivingTestFailed    ApplicationStatus = "driving_test_failed"
	StatusMedicalTestCompleted ApplicationStatus = "medical_test_completed"
	StatusMedicalTestFailed    ApplicationStatus = "medical_test_failed"
	StatusAdminReview          ApplicationStatus = "admin_review"
	StatusApproved             ApplicationStatus = "approved"
	StatusRejected             ApplicationStatus = "rejected"
	StatusCertified            ApplicationStatus = "certified"
)

// IsValid checks the status against the supported enum values.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusDrivingTestCompleted, StatusDrivingTestFailed,
		StatusMedicalTestCompleted, StatusMedicalTestFailed, StatusAdminReview,
		StatusApproved, StatusRejected, StatusCertified:
		return true
	}
	return false
}

// CertificateStatus is the administrative state of an issued certificate.
type CertificateStatus string

const (
	CertificateActive  CertificateStatus = "active"
	CertificateExpired CertificateStatus = "expired"
	CertificateRevoked CertificateStatus = "revoked"
)

// Grade is the A/B/C/Fail classification derived from the total driving score.
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeFail Grade = "Fail"
)

// IdentityVerification carries the externally established identity flags.
// How the documents were verified is out of scope; only the booleans gate
// progress here.
type IdentityVerification struct {
	PhotoMatched    bool `json:"photo_matched"`
	LicenseVerified bool `json:"license_verified"`
	PoliceClearance bool `json:"police_clearance"`
}

// Complete reports whether every identity check has passed.
func (v IdentityVerification) Complete() bool {
	return v.PhotoMatched && v.LicenseVerified && v.PoliceClearance
}

// Application is one driver's certification request for one or more vehicle
// classes. Test centers and labs mutate their own sections through their
// services; certificate fields are assigned exactly once by administrative
// action.
type Application struct {
	ID             id.ApplicationID  `json:"id"`
	DriverName     string            `json:"driver_name"`
	LicenseNumber  string            `json:"license_number"`
	VehicleClasses []string          `json:"vehicle_classes"`

	Identity      IdentityVerification `json:"identity"`
	Status        ApplicationStatus    `json:"status"`
	AdminApproved bool                 `json:"admin_approved"`

	DrivingTestPassed bool `json:"driving_test_passed"`
	MedicalTestPassed bool `json:"medical_test_passed"`

	// MedicalFitness is set once the medical result is submitted. The stages
	// may run in either order, so a concluded stage is marked here rather
	// than read off the single Status value.
	MedicalFitness *FitnessStatus `json:"medical_fitness,omitempty"`

	CertificateNumber *string           `json:"certificate_number,omitempty"`
	CertificateStatus CertificateStatus `json:"certificate_status,omitempty"`
	CertificateExpiry *time.Time        `json:"certificate_expiry,omitempty"`
	SkillGrade        *Grade            `json:"skill_grade,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Certified reports whether a certificate number has been assigned.
func (a *Application) Certified() bool {
	return a.CertificateNumber != nil && *a.CertificateNumber != ""
}

// CertificateExpired reports whether the certificate expiry has passed at now.
func (a *Application) CertificateExpired(now time.Time) bool {
	return a.CertificateExpiry != nil && a.CertificateExpiry.Before(now)
}
