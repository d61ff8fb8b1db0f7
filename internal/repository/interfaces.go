package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	AdminRepository interface {
		Create(ctx context.Context, admin *model.Admin) error
		GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		// Delete removes the doctor and all of their appointments in one
		// transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
		List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		// ExistsByEmailOrPhone backs the duplicate-registration pre-check;
		// either field matching an existing patient counts.
		ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
		// ExistsConflict matches the exact start instant for the doctor,
		// ignoring cancelled rows and the excluded appointment id.
		ExistsConflict(ctx context.Context, doctorID uuid.UUID, startTime time.Time, excludeID *uuid.UUID) (bool, error)
		ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.AppointmentDetail, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID, status *model.AppointmentStatus, doctorName string) ([]*model.AppointmentDetail, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error)
		ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	}
)
