// Package medical turns lab-recorded vitals and screening panels into a
// fitness classification. Rule evaluation is pure; the service persists
// results and propagates the workflow outcome.
package medical

import (
	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

// Inputs is everything a lab records for one medical exam.
type Inputs struct {
	Health  domain.HealthScreening `json:"health"`
	Alcohol domain.ScreenResult    `json:"alcohol"`
	Drugs   domain.DrugScreen      `json:"drugs"`
}

// Report is the derived medical outcome.
type Report struct {
	HealthPassed  bool
	AlcoholClean  bool
	DrugClean     bool
	FitnessStatus domain.FitnessStatus
}

// HealthPassed applies the health-screening rule chain: every status must be
// recorded, and none may be at its disqualifying level.
func HealthPassed(h domain.HealthScreening) bool {
	if h.BloodPressureStatus == "" || h.BloodPressureStatus == domain.BloodPressureCritical {
		return false
	}
	if h.VisionStatus == "" || h.VisionStatus == domain.VisionFailed {
		return false
	}
	if h.HearingStatus == "" || h.HearingStatus == domain.HearingSevereLoss {
		return false
	}
	return true
}

// DrugClean reports whether all eight panels are negative. Any positive panel
// is a hard fail; an untested panel is not clean either.
func DrugClean(d domain.DrugScreen) bool {
	for _, panel := range d.Panels() {
		if panel != domain.ScreenNegative {
			return false
		}
	}
	return true
}

// AnyPositive reports whether any substance panel came back positive.
func AnyPositive(d domain.DrugScreen) bool {
	for _, panel := range d.Panels() {
		if panel == domain.ScreenPositive {
			return true
		}
	}
	return false
}

// Classify derives the fitness status. Rule priority (fail-fast):
//  1. Any positive substance result or failed health screening: unfit.
//  2. Everything recorded and clean: fit.
//  3. Otherwise conditionally fit (borderline values without outright
//     failure, in the absence of any positive substance result).
func Classify(in Inputs) Report {
	healthPassed := HealthPassed(in.Health)
	alcoholClean := in.Alcohol == domain.ScreenNegative
	drugClean := DrugClean(in.Drugs)

	var status domain.FitnessStatus
	switch {
	case !healthPassed || AnyPositive(in.Drugs) || in.Alcohol == domain.ScreenPositive:
		status = domain.FitnessUnfit
	case healthPassed && drugClean && alcoholClean:
		status = domain.FitnessFit
	default:
		status = domain.FitnessConditionallyFit
	}

	return Report{
		HealthPassed:  healthPassed,
		AlcoholClean:  alcoholClean,
		DrugClean:     drugClean,
		FitnessStatus: status,
	}
}

// Validate rejects malformed screen results before anything is derived.
func Validate(in Inputs) error {
	if !validScreen(in.Alcohol) {
		return dErrors.New(dErrors.CodeValidation, "alcohol result must be negative, positive, or untested")
	}
	for _, panel := range in.Drugs.Panels() {
		if !validScreen(panel) {
			return dErrors.New(dErrors.CodeValidation, "drug panel result must be negative, positive, or untested")
		}
	}
	return nil
}

func validScreen(r domain.ScreenResult) bool {
	switch r {
	case domain.ScreenNegative, domain.ScreenPositive, domain.ScreenUntested:
		return true
	}
	return false
}
