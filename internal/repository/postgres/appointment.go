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

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.observe(time.Now(), "appointment_create", &err)

	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, start_time, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		// 23505 here means the slot was taken between the conflict
		// pre-check and this insert.
		if isUniqueViolation(err) {
			return apperrors.Conflict("appointment slot already taken", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to create appointment: %w", err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Appointment, err error) {
	defer r.observe(time.Now(), "appointment_get", &err)

	query := `
		SELECT id, doctor_id, patient_id, start_time, status,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err = r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.observe(time.Now(), "appointment_update", &err)

	query := `
		UPDATE appointments
		SET doctor_id = $1, patient_id = $2, start_time = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("appointment slot already taken", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to update appointment: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (err error) {
	defer r.observe(time.Now(), "appointment_update_status", &err)

	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update appointment status: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer r.observe(time.Now(), "appointment_delete", &err)

	query := `
		DELETE FROM appointments
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete appointment: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

// ExistsConflict is an exact-instant match, not an interval-overlap test:
// the store does not model appointment duration for conflict purposes.
func (r *appointmentRepository) ExistsConflict(ctx context.Context, doctorID uuid.UUID, startTime time.Time, excludeID *uuid.UUID) (_ bool, err error) {
	defer r.observe(time.Now(), "appointment_conflict_check", &err)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND start_time = $2
			AND status <> 'cancelled'
	`
	args := []interface{}{doctorID, startTime}

	if excludeID != nil {
		query += " AND id <> $3"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	err = r.db.GetContext(ctx, &hasConflict, query, args...)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to check conflicts: %w", err))
	}
	return hasConflict, nil
}

func (r *appointmentRepository) ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (_ []*model.AppointmentDetail, err error) {
	defer r.observe(time.Now(), "appointment_list_doctor", &err)

	query := `
		SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status,
			   a.created_at, a.updated_at,
			   d.name AS doctor_name, p.name AS patient_name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		AND a.start_time >= $2
		AND a.start_time < $3
		ORDER BY a.start_time ASC
	`
	appointments := []*model.AppointmentDetail{}
	err = r.db.SelectContext(ctx, &appointments, query, doctorID, from, to)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list doctor appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, status *model.AppointmentStatus, doctorName string) (_ []*model.AppointmentDetail, err error) {
	defer r.observe(time.Now(), "appointment_list_patient", &err)

	query := `
		SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status,
			   a.created_at, a.updated_at,
			   d.name AS doctor_name, p.name AS patient_name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
	`
	args := []interface{}{patientID}
	argCount := 2

	if status != nil {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, *status)
		argCount++
	}

	if doctorName != "" {
		query += fmt.Sprintf(" AND d.name ILIKE $%d", argCount)
		args = append(args, "%"+doctorName+"%")
		argCount++
	}

	query += " ORDER BY a.start_time ASC"

	appointments := []*model.AppointmentDetail{}
	err = r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list patient appointments: %w", err))
	}
	return appointments, nil
}
