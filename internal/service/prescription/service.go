package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo         repository.PrescriptionRepository
	appointments repository.AppointmentRepository
}

func NewService(repo repository.PrescriptionRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{repo: repo, appointments: appointments}
}

// Create issues a prescription for an appointment. At most one
// prescription per appointment; issuing one marks a scheduled
// appointment completed.
func (s *Service) Create(ctx context.Context, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("appointment already has a prescription", nil)
	}

	prescription := &model.Prescription{
		AppointmentID: req.AppointmentID.String(),
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	}

	if err := s.repo.Create(ctx, prescription); err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusScheduled {
		if err := s.appointments.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted); err != nil {
			log.Warn().Err(err).Str("appointment_id", apt.ID.String()).
				Msg("failed to mark appointment completed after prescription")
		}
	}

	return prescription, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}
