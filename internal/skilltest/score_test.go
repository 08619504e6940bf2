package skilltest

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

type ScoreSuite struct {
	suite.Suite
}

func TestScoreSuite(t *testing.T) {
	suite.Run(t, new(ScoreSuite))
}

func (s *ScoreSuite) TestScaleTraffic() {
	s.Run("scales correct answers to twenty points", func() {
		s.Equal(20, ScaleTraffic(20, 20))
		s.Equal(10, ScaleTraffic(10, 20))
		s.Equal(0, ScaleTraffic(0, 20))
	})

	s.Run("rounds half up", func() {
		// 13/20*20 = 13; 7/15*20 = 9.33 -> 9; 8/15*20 = 10.67 -> 11
		s.Equal(9, ScaleTraffic(7, 15))
		s.Equal(11, ScaleTraffic(8, 15))
	})

	s.Run("zero presented scores zero", func() {
		s.Equal(0, ScaleTraffic(5, 0))
		s.Equal(0, ScaleTraffic(5, -1))
	})
}

func (s *ScoreSuite) TestPracticalTotals() {
	practical := PracticalInput{
		VehicleControl:    9,
		ParallelParking:   8,
		HillDriving:       7,
		EmergencyHandling: 9,
		DefensiveDriving:  8,
	}
	report := Score(TrafficInput{Correct: 20, Presented: 20}, practical, fullInspection(), true)

	s.Run("total is the sum of the five categories", func() {
		s.Equal(41, report.Practical.Total)
	})

	s.Run("passes at forty", func() {
		s.True(report.Practical.Passed)

		at := practical
		at.DefensiveDriving = 7 // total 40
		s.True(Score(TrafficInput{Correct: 20, Presented: 20}, at, fullInspection(), true).Practical.Passed)

		below := practical
		below.DefensiveDriving = 6 // total 39
		s.False(Score(TrafficInput{Correct: 20, Presented: 20}, below, fullInspection(), true).Practical.Passed)
	})
}

func (s *ScoreSuite) TestGradeBoundaries() {
	cases := []struct {
		total int
		grade domain.Grade
	}{
		{85, domain.GradeA},
		{84, domain.GradeB},
		{70, domain.GradeB},
		{69, domain.GradeC},
		{60, domain.GradeC},
		{59, domain.GradeFail},
		{100, domain.GradeA},
		{0, domain.GradeFail},
	}
	for _, c := range cases {
		s.Equal(c.grade, GradeFor(c.total), "total %d", c.total)
	}
}

func (s *ScoreSuite) TestOverallPassed() {
	traffic := TrafficInput{Correct: 18, Presented: 20}
	practical := PracticalInput{9, 8, 8, 8, 8} // 41
	inspection := InspectionInput{4, 3, 3, 3, 3} // 16

	s.Run("requires every section and identity", func() {
		report := Score(traffic, practical, inspection, true)
		s.True(report.OverallPassed)

		s.False(Score(traffic, practical, inspection, false).OverallPassed)
		s.False(Score(TrafficInput{Correct: 11, Presented: 20}, practical, inspection, true).OverallPassed)
		s.False(Score(traffic, PracticalInput{8, 8, 8, 8, 7}, inspection, true).OverallPassed)
		s.False(Score(traffic, practical, InspectionInput{2, 2, 2, 2, 3}, true).OverallPassed)
	})

	s.Run("full pipeline lands on grade B", func() {
		report := Score(traffic, practical, inspection, true)
		s.Equal(18, report.Traffic.Scaled)
		s.Equal(41, report.Practical.Total)
		s.Equal(16, report.Inspection.Total)
		s.Equal(75, report.Total)
		s.Equal(domain.GradeB, report.SkillGrade)
		s.True(report.OverallPassed)
	})
}

func (s *ScoreSuite) TestValidate() {
	s.Run("accepts range-respecting inputs", func() {
		s.NoError(Validate(TrafficInput{18, 20}, PracticalInput{10, 0, 5, 7, 9}, InspectionInput{0, 1, 2, 3, 4}))
	})

	s.Run("rejects out-of-range values", func() {
		cases := []error{
			Validate(TrafficInput{21, 20}, PracticalInput{}, InspectionInput{}),
			Validate(TrafficInput{-1, 20}, PracticalInput{}, InspectionInput{}),
			Validate(TrafficInput{0, 20}, PracticalInput{VehicleControl: 11}, InspectionInput{}),
			Validate(TrafficInput{0, 20}, PracticalInput{HillDriving: -1}, InspectionInput{}),
			Validate(TrafficInput{0, 20}, PracticalInput{}, InspectionInput{Tyres: 5}),
		}
		for _, err := range cases {
			s.Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func fullInspection() InspectionInput {
	return InspectionInput{BrakeSystem: 4, EngineFluids: 4, Tyres: 4, LightsSafety: 4, Diagnosis: 4}
}
