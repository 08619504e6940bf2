// Package eligibility resolves certificate numbers into hiring
// recommendations for third-party verifiers. Verification is read-only and
// transient; a query never mutates application state.
package eligibility

import (
	"time"

	"drivecert/internal/domain"
)

// ExpiringSoonWindow is how close to expiry a certificate may be before
// verifiers are warned.
const ExpiringSoonWindow = 30 * 24 * time.Hour

// Resolve derives the verifier-facing result from an application and its
// tests at the given instant. Pure; all persistence happens in the service.
func Resolve(app domain.Application, driving *domain.DrivingTestResult, medical *domain.MedicalTestResult, now time.Time) domain.VerificationResult {
	result := domain.VerificationResult{
		Found:          true,
		Recommendation: domain.RecommendEligible,
	}
	if app.CertificateNumber != nil {
		result.CertificateNumber = *app.CertificateNumber
	}

	expired := app.CertificateExpired(now)
	status := app.CertificateStatus
	if expired && status == domain.CertificateActive {
		status = domain.CertificateExpired
	}
	result.CertificateStatus = status
	result.ExpiryDate = app.CertificateExpiry

	result.Valid = app.AdminApproved &&
		app.Certified() &&
		!expired &&
		status == domain.CertificateActive

	if app.CertificateExpiry != nil && !expired {
		result.ExpiringSoon = now.Add(ExpiringSoonWindow).After(*app.CertificateExpiry)
	}
	if medical != nil {
		result.ConditionalFit = medical.FitnessStatus == domain.FitnessConditionallyFit
	}

	switch {
	case !result.Valid:
		result.Recommendation = domain.RecommendNotEligible
	case result.ExpiringSoon || result.ConditionalFit:
		result.Recommendation = domain.RecommendEligibleWithConditions
	}

	if driving != nil {
		breakdown := domain.ScoreBreakdown{
			Traffic:    driving.Traffic.Scaled,
			Practical:  driving.Practical.Total,
			Inspection: driving.Inspection.Total,
			Total:      driving.Total,
			SkillGrade: driving.SkillGrade,
		}
		if medical != nil {
			breakdown.MedicalPassed = medical.FitnessStatus.Passing()
			breakdown.FitnessStatus = medical.FitnessStatus
		}
		result.Breakdown = &breakdown
	}

	return result
}

// NotFoundResult is the answer for an unknown certificate number. A miss is
// an expected outcome for legitimate queries, not an error.
func NotFoundResult(certNo string) domain.VerificationResult {
	return domain.VerificationResult{
		CertificateNumber: certNo,
		Found:             false,
		Recommendation:    domain.RecommendNotEligible,
	}
}
