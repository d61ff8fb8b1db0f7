package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// EventChannel carries every appointment lifecycle event.
const EventChannel = "appointments"

type Service struct {
	repo     repository.AppointmentRepository
	doctors  repository.DoctorRepository
	broker   messaging.Broker
	emailSvc email.Sender
	metrics  *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, doctors repository.DoctorRepository,
	broker messaging.Broker, emailSvc email.Sender, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		broker:   broker,
		emailSvc: emailSvc,
		metrics:  m,
	}
}

// Book creates a new appointment for the requesting patient. The slot must
// be free and the start instant strictly in the future.
func (s *Service) Book(ctx context.Context, subject model.AuthSubject, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !req.StartTime.After(time.Now()) {
		return nil, apperrors.Validation("appointment time must be in the future", nil)
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor", nil)
	}

	taken, err := s.repo.ExistsConflict(ctx, req.DoctorID, req.StartTime.UTC(), nil)
	if err != nil {
		return nil, err
	}
	if taken {
		if s.metrics != nil {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, apperrors.Conflict("appointment slot already taken", nil)
	}

	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		DoctorID:  req.DoctorID,
		PatientID: subject.ID,
		StartTime: req.StartTime.UTC(),
		Status:    model.AppointmentStatusScheduled,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsTotal.Inc()
	}
	s.publish(ctx, "appointment.booked", apt)
	s.notifyBooked(ctx, subject.Email, apt)

	return apt, nil
}

// Update reschedules a scheduled appointment. Only the owning patient may
// update, and the target slot must be free; the appointment's own slot is
// excluded so a no-op reschedule is not flagged as a self-conflict.
func (s *Service) Update(ctx context.Context, subject model.AuthSubject, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.PatientID != subject.ID {
		return nil, apperrors.Forbidden("appointment belongs to another patient", nil)
	}

	if apt.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict("only scheduled appointments can be rescheduled", nil)
	}

	if !req.StartTime.After(time.Now()) {
		return nil, apperrors.Validation("appointment time must be in the future", nil)
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor", nil)
	}

	taken, err := s.repo.ExistsConflict(ctx, req.DoctorID, req.StartTime.UTC(), &apt.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("appointment slot already taken", nil)
	}

	apt.DoctorID = req.DoctorID
	apt.StartTime = req.StartTime.UTC()

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.publish(ctx, "appointment.updated", apt)

	return apt, nil
}

// Cancel hard-deletes the appointment. The requesting patient must own it.
func (s *Service) Cancel(ctx context.Context, subject model.AuthSubject, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if apt.PatientID != subject.ID {
		return apperrors.Forbidden("appointment belongs to another patient", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.CancellationsTotal.Inc()
	}
	s.publish(ctx, "appointment.cancelled", apt)
	s.notifyCancelled(ctx, subject.Email, apt)

	return nil
}

// ChangeStatus moves a scheduled appointment to completed or cancelled.
// Completed and cancelled are terminal.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	if !status.Valid() {
		return apperrors.Validation("invalid appointment status", nil)
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if apt.Status != model.AppointmentStatusScheduled {
		return apperrors.Conflict("appointment status can no longer change", nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	apt.Status = status
	s.publish(ctx, "appointment."+string(status), apt)

	return nil
}

// ListForDoctor returns the doctor's appointments for the given day,
// optionally filtered by a case-insensitive patient-name substring.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]*model.AppointmentDetail, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	appointments, err := s.repo.ListForDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	if patientName == "" {
		return appointments, nil
	}

	needle := strings.ToLower(patientName)
	filtered := make([]*model.AppointmentDetail, 0, len(appointments))
	for _, apt := range appointments {
		if strings.Contains(strings.ToLower(apt.PatientName), needle) {
			filtered = append(filtered, apt)
		}
	}
	return filtered, nil
}

// ListForPatient returns the patient's own appointments. Condition "past"
// selects completed ones, "future" scheduled ones.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, condition model.AppointmentCondition, doctorName string) ([]*model.AppointmentDetail, error) {
	var status *model.AppointmentStatus

	switch condition {
	case "":
	case model.ConditionPast:
		completed := model.AppointmentStatusCompleted
		status = &completed
	case model.ConditionFuture:
		scheduled := model.AppointmentStatusScheduled
		status = &scheduled
	default:
		return nil, apperrors.Validation("invalid condition, use 'past' or 'future'", nil)
	}

	return s.repo.ListForPatient(ctx, patientID, status, doctorName)
}

func (s *Service) publish(ctx context.Context, eventType string, apt *model.Appointment) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{Type: eventType, Payload: apt}
	if err := s.broker.Publish(ctx, EventChannel, msg); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("appointment_id", apt.ID.String()).
			Msg("failed to publish appointment event")
	}
}

func (s *Service) notifyBooked(ctx context.Context, to string, apt *model.Appointment) {
	if s.emailSvc == nil || to == "" {
		return
	}
	if err := s.emailSvc.SendBookingConfirmation(ctx, to, apt); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).
			Msg("failed to send booking confirmation")
	}
}

func (s *Service) notifyCancelled(ctx context.Context, to string, apt *model.Appointment) {
	if s.emailSvc == nil || to == "" {
		return
	}
	if err := s.emailSvc.SendCancellation(ctx, to, apt); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).
			Msg("failed to send cancellation notice")
	}
}
