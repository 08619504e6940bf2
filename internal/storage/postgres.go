package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"drivecert/internal/domain"
	id "drivecert/pkg/domain"
)

// PostgresApplicationStore persists applications in PostgreSQL. The store is
// pure I/O; lifecycle rules live in the services.
type PostgresApplicationStore struct {
	db *sql.DB
}

func NewPostgresApplicationStore(db *sql.DB) *PostgresApplicationStore {
	return &PostgresApplicationStore{db: db}
}

const applicationColumns = `
	id, driver_name, license_number, vehicle_classes,
	photo_matched, license_verified, police_clearance,
	status, admin_approved, driving_test_passed, medical_test_passed,
	medical_fitness,
	certificate_number, certificate_status, certificate_expiry, skill_grade,
	created_at, updated_at`

func (s *PostgresApplicationStore) Save(ctx context.Context, app domain.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			admin_approved = EXCLUDED.admin_approved,
			driving_test_passed = EXCLUDED.driving_test_passed,
			medical_test_passed = EXCLUDED.medical_test_passed,
			medical_fitness = EXCLUDED.medical_fitness,
			certificate_number = EXCLUDED.certificate_number,
			certificate_status = EXCLUDED.certificate_status,
			certificate_expiry = EXCLUDED.certificate_expiry,
			skill_grade = EXCLUDED.skill_grade,
			updated_at = EXCLUDED.updated_at
	`
	var grade *string
	if app.SkillGrade != nil {
		g := string(*app.SkillGrade)
		grade = &g
	}
	var fitness *string
	if app.MedicalFitness != nil {
		f := string(*app.MedicalFitness)
		fitness = &f
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID), app.DriverName, app.LicenseNumber, pq.Array(app.VehicleClasses),
		app.Identity.PhotoMatched, app.Identity.LicenseVerified, app.Identity.PoliceClearance,
		string(app.Status), app.AdminApproved, app.DrivingTestPassed, app.MedicalTestPassed,
		fitness,
		app.CertificateNumber, nullableString(string(app.CertificateStatus)), app.CertificateExpiry, grade,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	return nil
}

func (s *PostgresApplicationStore) FindByID(ctx context.Context, appID id.ApplicationID) (domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(appID)))
}

func (s *PostgresApplicationStore) FindByCertificateNumber(ctx context.Context, certNo string) (domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE certificate_number = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, certNo))
}

func scanApplication(row *sql.Row) (domain.Application, error) {
	var (
		app        domain.Application
		appID      uuid.UUID
		classes    pq.StringArray
		fitness    sql.NullString
		certStatus sql.NullString
		grade      sql.NullString
	)
	err := row.Scan(
		&appID, &app.DriverName, &app.LicenseNumber, &classes,
		&app.Identity.PhotoMatched, &app.Identity.LicenseVerified, &app.Identity.PoliceClearance,
		&app.Status, &app.AdminApproved, &app.DrivingTestPassed, &app.MedicalTestPassed,
		&fitness,
		&app.CertificateNumber, &certStatus, &app.CertificateExpiry, &grade,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Application{}, ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("scan application: %w", err)
	}
	app.ID = id.ApplicationID(appID)
	app.VehicleClasses = classes
	if fitness.Valid {
		f := domain.FitnessStatus(fitness.String)
		app.MedicalFitness = &f
	}
	if certStatus.Valid {
		app.CertificateStatus = domain.CertificateStatus(certStatus.String)
	}
	if grade.Valid {
		g := domain.Grade(grade.String)
		app.SkillGrade = &g
	}
	return app, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
