package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (err error) {
	defer r.observe(time.Now(), "doctor_create", &err)

	query := `
		INSERT INTO doctors (
			id, name, specialty, email, phone, password_hash,
			available_times, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Specialty,
		doctor.Email,
		doctor.Phone,
		doctor.PasswordHash,
		doctor.AvailableTimes,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("doctor already exists", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to create doctor: %w", err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Doctor, err error) {
	defer r.observe(time.Now(), "doctor_get", &err)

	query := `
		SELECT id, name, specialty, email, phone, password_hash,
			   available_times, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	err = r.db.GetContext(ctx, &doctor, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get doctor: %w", err))
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (_ *model.Doctor, err error) {
	defer r.observe(time.Now(), "doctor_get_by_email", &err)

	query := `
		SELECT id, name, specialty, email, phone, password_hash,
			   available_times, created_at, updated_at
		FROM doctors
		WHERE email = $1
	`
	var doctor model.Doctor
	err = r.db.GetContext(ctx, &doctor, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get doctor by email: %w", err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) (err error) {
	defer r.observe(time.Now(), "doctor_update", &err)

	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, phone = $3, available_times = $4, updated_at = $5
		WHERE id = $6
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.Phone,
		doctor.AvailableTimes,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update doctor: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("doctor", nil)
	}

	return nil
}

// Delete removes the doctor and cascades to their appointments in a single
// transaction.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer r.observe(time.Now(), "doctor_delete", &err)

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
			return apperrors.Internal(fmt.Errorf("failed to delete doctor appointments: %w", err))
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("failed to delete doctor: %w", err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
		}
		if rows == 0 {
			return apperrors.NotFound("doctor", nil)
		}

		return nil
	})
}

func (r *doctorRepository) Exists(ctx context.Context, id uuid.UUID) (_ bool, err error) {
	defer r.observe(time.Now(), "doctor_exists", &err)

	var exists bool
	err = r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to check doctor existence: %w", err))
	}
	return exists, nil
}

func (r *doctorRepository) List(ctx context.Context, filter *model.DoctorFilter) (_ []*model.Doctor, err error) {
	defer r.observe(time.Now(), "doctor_list", &err)

	query := `
		SELECT id, name, specialty, email, phone, password_hash,
			   available_times, created_at, updated_at
		FROM doctors
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filter != nil {
		if filter.Name != "" {
			query += fmt.Sprintf(" AND name ILIKE $%d", argCount)
			args = append(args, "%"+filter.Name+"%")
			argCount++
		}
		if filter.Specialty != "" {
			query += fmt.Sprintf(" AND LOWER(specialty) = LOWER($%d)", argCount)
			args = append(args, filter.Specialty)
			argCount++
		}
		if filter.Time != "" {
			query += fmt.Sprintf(" AND $%d ILIKE ANY(available_times)", argCount)
			args = append(args, filter.Time)
			argCount++
		}
	}

	query += " ORDER BY name ASC"

	doctors := []*model.Doctor{}
	err = r.db.SelectContext(ctx, &doctors, query, args...)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list doctors: %w", err))
	}
	return doctors, nil
}
