package domain

import (
	"time"

	id "drivecert/pkg/domain"
)

// TrafficScore is the scaled traffic-law sub-score fed by the remote exam.
type TrafficScore struct {
	Correct   int  `json:"correct"`
	Presented int  `json:"presented"`
	Scaled    int  `json:"scaled"` // 0-20
	Passed    bool `json:"passed"` // scaled >= 12
}

// PracticalScores are the five examiner-rated driving categories, 0-10 each.
type PracticalScores struct {
	VehicleControl    int `json:"vehicle_control"`
	ParallelParking   int `json:"parallel_parking"`
	HillDriving       int `json:"hill_driving"`
	EmergencyHandling int `json:"emergency_handling"`
	DefensiveDriving  int `json:"defensive_driving"`

	Total  int  `json:"total"`  // 0-60 nominal
	Passed bool `json:"passed"` // total >= 40
}

// Categories returns the rated values in a fixed order.
func (p PracticalScores) Categories() []int {
	return []int{p.VehicleControl, p.ParallelParking, p.HillDriving, p.EmergencyHandling, p.DefensiveDriving}
}

// InspectionScores are the five vehicle-inspection categories, 0-4 each.
// The five-way partition is the authoring breakdown; verifier-facing payloads
// expose only the total.
type InspectionScores struct {
	BrakeSystem  int `json:"brake_system"`
	EngineFluids int `json:"engine_fluids"`
	Tyres        int `json:"tyres"`
	LightsSafety int `json:"lights_safety"`
	Diagnosis    int `json:"diagnosis"`

	Total  int  `json:"total"`  // 0-20 nominal
	Passed bool `json:"passed"` // total >= 12
}

// Categories returns the rated values in a fixed order.
func (i InspectionScores) Categories() []int {
	return []int{i.BrakeSystem, i.EngineFluids, i.Tyres, i.LightsSafety, i.Diagnosis}
}

// DrivingTestResult is the one driving-test record per application. A nil
// SubmittedAt means the result is a draft and still editable; once stamped it
// is immutable.
type DrivingTestResult struct {
	ID            id.ResultID      `json:"id"`
	ApplicationID id.ApplicationID `json:"application_id"`

	Traffic    TrafficScore     `json:"traffic"`
	Practical  PracticalScores  `json:"practical"`
	Inspection InspectionScores `json:"inspection"`

	Total         int   `json:"total"` // 0-100 nominal
	SkillGrade    Grade `json:"skill_grade"`
	OverallPassed bool  `json:"overall_passed"`

	ExaminerName string     `json:"examiner_name"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submitted reports whether the result has been finalized.
func (r *DrivingTestResult) Submitted() bool { return r.SubmittedAt != nil }
