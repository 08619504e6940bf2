package medical

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"drivecert/internal/domain"
	dErrors "drivecert/pkg/domain-errors"
)

type FitnessSuite struct {
	suite.Suite
}

func TestFitnessSuite(t *testing.T) {
	suite.Run(t, new(FitnessSuite))
}

func cleanInputs() Inputs {
	return Inputs{
		Health: domain.HealthScreening{
			BloodPressureStatus: domain.BloodPressureNormal,
			VisionStatus:        domain.VisionNormal,
			HearingStatus:       domain.HearingNormal,
		},
		Alcohol: domain.ScreenNegative,
		Drugs:   cleanScreen(),
	}
}

func cleanScreen() domain.DrugScreen {
	return domain.DrugScreen{
		Amphetamines:    domain.ScreenNegative,
		Barbiturates:    domain.ScreenNegative,
		Benzodiazepines: domain.ScreenNegative,
		Cannabis:        domain.ScreenNegative,
		Cocaine:         domain.ScreenNegative,
		Methadone:       domain.ScreenNegative,
		Opiates:         domain.ScreenNegative,
		Phencyclidine:   domain.ScreenNegative,
	}
}

func (s *FitnessSuite) TestHealthPassed() {
	s.Run("all recorded and acceptable passes", func() {
		s.True(HealthPassed(cleanInputs().Health))
	})

	s.Run("borderline values still pass", func() {
		s.True(HealthPassed(domain.HealthScreening{
			BloodPressureStatus: domain.BloodPressureElevated,
			VisionStatus:        domain.VisionCorrective,
			HearingStatus:       domain.HearingMildLoss,
		}))
	})

	s.Run("disqualifying levels fail", func() {
		health := cleanInputs().Health
		health.BloodPressureStatus = domain.BloodPressureCritical
		s.False(HealthPassed(health))

		health = cleanInputs().Health
		health.VisionStatus = domain.VisionFailed
		s.False(HealthPassed(health))

		health = cleanInputs().Health
		health.HearingStatus = domain.HearingSevereLoss
		s.False(HealthPassed(health))
	})

	s.Run("missing statuses fail", func() {
		health := cleanInputs().Health
		health.HearingStatus = ""
		s.False(HealthPassed(health))
	})
}

func (s *FitnessSuite) TestClassify() {
	s.Run("all clean is fit", func() {
		s.Equal(domain.FitnessFit, Classify(cleanInputs()).FitnessStatus)
	})

	s.Run("any positive panel is unfit", func() {
		in := cleanInputs()
		in.Drugs.Cannabis = domain.ScreenPositive
		s.Equal(domain.FitnessUnfit, Classify(in).FitnessStatus)
	})

	s.Run("positive alcohol is unfit", func() {
		in := cleanInputs()
		in.Alcohol = domain.ScreenPositive
		s.Equal(domain.FitnessUnfit, Classify(in).FitnessStatus)
	})

	s.Run("failed health screening is unfit even with clean panels", func() {
		in := cleanInputs()
		in.Health.BloodPressureStatus = domain.BloodPressureCritical
		s.Equal(domain.FitnessUnfit, Classify(in).FitnessStatus)
	})

	s.Run("untested panel without positives is conditionally fit", func() {
		in := cleanInputs()
		in.Drugs.Methadone = domain.ScreenUntested
		report := Classify(in)
		s.Equal(domain.FitnessConditionallyFit, report.FitnessStatus)
		s.False(report.DrugClean)
		s.True(report.HealthPassed)
	})

	s.Run("untested alcohol without positives is conditionally fit", func() {
		in := cleanInputs()
		in.Alcohol = domain.ScreenUntested
		s.Equal(domain.FitnessConditionallyFit, Classify(in).FitnessStatus)
	})

	s.Run("conditional fitness still passes the workflow", func() {
		in := cleanInputs()
		in.Alcohol = domain.ScreenUntested
		s.True(Classify(in).FitnessStatus.Passing())
		s.False(domain.FitnessUnfit.Passing())
	})
}

func (s *FitnessSuite) TestValidate() {
	s.Run("accepts known screen values", func() {
		s.NoError(Validate(cleanInputs()))
	})

	s.Run("rejects unknown screen values", func() {
		in := cleanInputs()
		in.Alcohol = "inconclusive"
		err := Validate(in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		in = cleanInputs()
		in.Drugs.Opiates = "maybe"
		err = Validate(in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
