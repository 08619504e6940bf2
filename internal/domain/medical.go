package domain

import (
	"time"

	id "drivecert/pkg/domain"
)

// FitnessStatus classifies the medical outcome.
type FitnessStatus string

const (
	FitnessPending          FitnessStatus = "pending"
	FitnessFit              FitnessStatus = "fit"
	FitnessConditionallyFit FitnessStatus = "conditionally_fit"
	FitnessUnfit            FitnessStatus = "unfit"
)

// Passing reports whether the status allows the workflow to proceed.
// Conditional fitness passes; it only surfaces later as a verifier condition.
func (s FitnessStatus) Passing() bool {
	return s == FitnessFit || s == FitnessConditionallyFit
}

// ScreenResult is a single substance-panel outcome.
type ScreenResult string

const (
	ScreenNegative ScreenResult = "negative"
	ScreenPositive ScreenResult = "positive"
	ScreenUntested ScreenResult = ""
)

// Blood pressure, vision, and hearing statuses recorded by the lab.
// An empty status means "not recorded" and fails the health screening.
const (
	BloodPressureNormal   = "normal"
	BloodPressureElevated = "elevated"
	BloodPressureCritical = "critical"

	VisionNormal     = "normal"
	VisionCorrective = "corrective"
	VisionFailed     = "failed"

	HearingNormal       = "normal"
	HearingMildLoss     = "mild_loss"
	HearingSevereLoss   = "severe_loss"
)

// HealthScreening carries the recorded vitals and sensory statuses.
type HealthScreening struct {
	BloodPressureStatus string `json:"blood_pressure_status"`
	VisionStatus        string `json:"vision_status"`
	HearingStatus       string `json:"hearing_status"`
}

// DrugScreen is the eight-panel substance screen. Any positive panel is a
// hard fail regardless of every other result.
type DrugScreen struct {
	Amphetamines    ScreenResult `json:"amphetamines"`
	Barbiturates    ScreenResult `json:"barbiturates"`
	Benzodiazepines ScreenResult `json:"benzodiazepines"`
	Cannabis        ScreenResult `json:"cannabis"`
	Cocaine         ScreenResult `json:"cocaine"`
	Methadone       ScreenResult `json:"methadone"`
	Opiates         ScreenResult `json:"opiates"`
	Phencyclidine   ScreenResult `json:"phencyclidine"`
}

// Panels returns the eight results in a fixed order.
func (d DrugScreen) Panels() []ScreenResult {
	return []ScreenResult{
		d.Amphetamines, d.Barbiturates, d.Benzodiazepines, d.Cannabis,
		d.Cocaine, d.Methadone, d.Opiates, d.Phencyclidine,
	}
}

// MedicalTestResult is the one medical record per application, created by an
// accredited lab. Same draft/submitted split as DrivingTestResult.
type MedicalTestResult struct {
	ID            id.ResultID      `json:"id"`
	ApplicationID id.ApplicationID `json:"application_id"`

	Health  HealthScreening `json:"health"`
	Alcohol ScreenResult    `json:"alcohol"`
	Drugs   DrugScreen      `json:"drugs"`

	HealthPassed  bool          `json:"health_passed"`
	AlcoholClean  bool          `json:"alcohol_clean"`
	DrugClean     bool          `json:"drug_clean"`
	FitnessStatus FitnessStatus `json:"fitness_status"`

	ExaminerName string     `json:"examiner_name"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submitted reports whether the result has been finalized.
func (r *MedicalTestResult) Submitted() bool { return r.SubmittedAt != nil }
