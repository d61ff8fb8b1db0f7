package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// instrumented records operation counts and latency for every repository
// call. A nil metrics handle disables recording.
type instrumented struct {
	m *metrics.Metrics
}

func (i instrumented) observe(start time.Time, op string, errp *error) {
	if i.m == nil {
		return
	}
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
	}
	i.m.DatabaseOperations.WithLabelValues(op, status).Inc()
	i.m.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type adminRepository struct {
	instrumented
	db *sqlx.DB
}

type doctorRepository struct {
	instrumented
	db *sqlx.DB
}

type patientRepository struct {
	instrumented
	db *sqlx.DB
}

type appointmentRepository struct {
	instrumented
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB, m *metrics.Metrics) repository.AdminRepository {
	return &adminRepository{instrumented: instrumented{m: m}, db: db}
}

func NewDoctorRepository(db *sqlx.DB, m *metrics.Metrics) repository.DoctorRepository {
	return &doctorRepository{instrumented: instrumented{m: m}, db: db}
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{instrumented: instrumented{m: m}, db: db}
}

func NewAppointmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.AppointmentRepository {
	return &appointmentRepository{instrumented: instrumented{m: m}, db: db}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// withTx executes fn within a transaction.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Internal(err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
