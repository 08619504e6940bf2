// Package skilltest turns raw driving-test inputs into pass/fail outcomes and
// skill grades. Scoring is pure domain logic: no I/O, no side effects; the
// service persists what these functions derive.
package skilltest

import (
	"math"

	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

// Pass thresholds and grade boundaries.
const (
	TrafficScale    = 20
	TrafficPassMark = 12

	PracticalCategoryMax = 10
	PracticalPassMark    = 40

	InspectionCategoryMax = 4
	InspectionPassMark    = 12

	TotalPassMark = 60

	gradeAMark = 85
	gradeBMark = 70
	gradeCMark = 60
)

// TrafficInput is the raw traffic-law exam outcome: how many answers were
// correct out of however many questions were presented.
type TrafficInput struct {
	Correct   int `json:"correct"`
	Presented int `json:"presented"`
}

// PracticalInput holds the five examiner-rated driving categories, 0-10 each.
type PracticalInput struct {
	VehicleControl    int `json:"vehicle_control"`
	ParallelParking   int `json:"parallel_parking"`
	HillDriving       int `json:"hill_driving"`
	EmergencyHandling int `json:"emergency_handling"`
	DefensiveDriving  int `json:"defensive_driving"`
}

// InspectionInput holds the five vehicle-inspection categories, 0-4 each.
type InspectionInput struct {
	BrakeSystem  int `json:"brake_system"`
	EngineFluids int `json:"engine_fluids"`
	Tyres        int `json:"tyres"`
	LightsSafety int `json:"lights_safety"`
	Diagnosis    int `json:"diagnosis"`
}

// Report is the derived scoring outcome for one driving test.
type Report struct {
	Traffic    domain.TrafficScore
	Practical  domain.PracticalScores
	Inspection domain.InspectionScores

	Total         int
	SkillGrade    domain.Grade
	OverallPassed bool
}

// ScaleTraffic normalizes a raw correct/presented count to the 0-20 scale.
// Zero presented questions scale to zero rather than dividing by zero.
func ScaleTraffic(correct, presented int) int {
	if presented <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(presented) * TrafficScale))
}

// GradeFor assigns the skill grade for a total score. Boundaries are exact:
// 85 is an A, 84 a B, 70 a B, 69 a C, 60 a C, 59 a Fail.
func GradeFor(total int) domain.Grade {
	switch {
	case total >= gradeAMark:
		return domain.GradeA
	case total >= gradeBMark:
		return domain.GradeB
	case total >= gradeCMark:
		return domain.GradeC
	default:
		return domain.GradeFail
	}
}

// Score derives the full report from raw inputs. Inputs are assumed validated
// (see Validate); identityVerified comes from the application's identity
// flags and gates the overall pass.
func Score(traffic TrafficInput, practical PracticalInput, inspection InspectionInput, identityVerified bool) Report {
	scaled := ScaleTraffic(traffic.Correct, traffic.Presented)
	trafficScore := domain.TrafficScore{
		Correct:   traffic.Correct,
		Presented: traffic.Presented,
		Scaled:    scaled,
		Passed:    scaled >= TrafficPassMark,
	}

	practicalTotal := practical.VehicleControl + practical.ParallelParking +
		practical.HillDriving + practical.EmergencyHandling + practical.DefensiveDriving
	practicalScore := domain.PracticalScores{
		VehicleControl:    practical.VehicleControl,
		ParallelParking:   practical.ParallelParking,
		HillDriving:       practical.HillDriving,
		EmergencyHandling: practical.EmergencyHandling,
		DefensiveDriving:  practical.DefensiveDriving,
		Total:             practicalTotal,
		Passed:            practicalTotal >= PracticalPassMark,
	}

	inspectionTotal := inspection.BrakeSystem + inspection.EngineFluids +
		inspection.Tyres + inspection.LightsSafety + inspection.Diagnosis
	inspectionScore := domain.InspectionScores{
		BrakeSystem:  inspection.BrakeSystem,
		EngineFluids: inspection.EngineFluids,
		Tyres:        inspection.Tyres,
		LightsSafety: inspection.LightsSafety,
		Diagnosis:    inspection.Diagnosis,
		Total:        inspectionTotal,
		Passed:       inspectionTotal >= InspectionPassMark,
	}

	total := scaled + practicalTotal + inspectionTotal

	return Report{
		Traffic:    trafficScore,
		Practical:  practicalScore,
		Inspection: inspectionScore,
		Total:      total,
		SkillGrade: GradeFor(total),
		OverallPassed: identityVerified &&
			trafficScore.Passed &&
			practicalScore.Passed &&
			inspectionScore.Passed &&
			total >= TotalPassMark,
	}
}

// Validate rejects out-of-range inputs before anything is derived or
// persisted.
func Validate(traffic TrafficInput, practical PracticalInput, inspection InspectionInput) error {
	if traffic.Correct < 0 || traffic.Presented < 0 {
		return dErrors.New(dErrors.CodeValidation, "traffic counts cannot be negative")
	}
	if traffic.Correct > traffic.Presented {
		return dErrors.New(dErrors.CodeValidation, "traffic correct count exceeds presented count")
	}
	for _, v := range []int{
		practical.VehicleControl, practical.ParallelParking, practical.HillDriving,
		practical.EmergencyHandling, practical.DefensiveDriving,
	} {
		if v < 0 || v > PracticalCategoryMax {
			return dErrors.Newf(dErrors.CodeValidation, "practical category score out of range [0,%d]", PracticalCategoryMax)
		}
	}
	for _, v := range []int{
		inspection.BrakeSystem, inspection.EngineFluids, inspection.Tyres,
		inspection.LightsSafety, inspection.Diagnosis,
	} {
		if v < 0 || v > InspectionCategoryMax {
			return dErrors.Newf(dErrors.CodeValidation, "inspection category score out of range [0,%d]", InspectionCategoryMax)
		}
	}
	return nil
}
