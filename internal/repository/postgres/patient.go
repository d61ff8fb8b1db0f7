package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.observe(time.Now(), "patient_create", &err)

	query := `
		INSERT INTO patients (
			id, name, email, phone, address, password_hash,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.PasswordHash,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("patient with email or phone already exists", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to create patient: %w", err))
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Patient, err error) {
	defer r.observe(time.Now(), "patient_get", &err)

	query := `
		SELECT id, name, email, phone, address, password_hash,
			   created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	err = r.db.GetContext(ctx, &patient, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get patient: %w", err))
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (_ *model.Patient, err error) {
	defer r.observe(time.Now(), "patient_get_by_email", &err)

	query := `
		SELECT id, name, email, phone, address, password_hash,
			   created_at, updated_at
		FROM patients
		WHERE email = $1
	`
	var patient model.Patient
	err = r.db.GetContext(ctx, &patient, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get patient by email: %w", err))
	}
	return &patient, nil
}

func (r *patientRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (_ bool, err error) {
	defer r.observe(time.Now(), "patient_exists", &err)

	var exists bool
	err = r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 OR phone = $2)`,
		email, phone,
	)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to check patient existence: %w", err))
	}
	return exists, nil
}
