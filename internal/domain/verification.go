package domain

import "time"

// Recommendation is the hiring-eligibility advice returned to verifiers.
type Recommendation string

const (
	RecommendEligible               Recommendation = "eligible"
	RecommendEligibleWithConditions Recommendation = "eligible_with_conditions"
	RecommendNotEligible            Recommendation = "not_eligible"
)

// ScoreBreakdown is the verifier-facing summary of test performance. Medical
// detail is reduced to pass/fail and fitness status; raw substance panels are
// never exposed to third parties.
type ScoreBreakdown struct {
	Traffic    int   `json:"traffic"`
	Practical  int   `json:"practical"`
	Inspection int   `json:"inspection"`
	Total      int   `json:"total"`
	SkillGrade Grade `json:"skill_grade"`

	MedicalPassed bool          `json:"medical_passed"`
	FitnessStatus FitnessStatus `json:"fitness_status"`
}

/// VerificationResult answers one certificate-number query. Transient: logged
// for audit but never persisted as domain state. An unknown number yields
// Found=false and RecommendNotEligible, which is an expected outcome for
// legitimate queries, not an error.
type VerificationResult struct {
	CertificateNumber string `json:"certificate_number"`
	Found             bool   `json:"found"`

	Valid          bool `json:"valid"`
	ExpiringSoon   bool `json:"expiring_soon"`
	ConditionalFit bool `json:"conditional_fit"`

	CertificateStatus CertificateStatus `json:"certificate_status,omitempty"`
	ExpiryDate        *time.Time        `json:"expiry_date,omitempty"`

	Recommendation Recommendation  `json:"recommendation"`
	Breakdown      *ScoreBreakdown `json:"breakdown,omitempty"`
}
