package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

const (
	// SlotDuration is the span each appointment logically occupies. Conflict
	// detection matches exact start instants only; the duration is not part
	// of the conflict test.
	SlotDuration = time.Hour

	// SlotLabelLayout formats a start instant into its slot template label.
	SlotLabelLayout = "15:04"
)

type Appointment struct {
	Base
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	StartTime time.Time         `db:"start_time" json:"start_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

// EndTime is derived, never stored.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(SlotDuration)
}

// SlotLabel projects the start instant onto the slot template's label space.
func (a *Appointment) SlotLabel() string {
	return a.StartTime.UTC().Format(SlotLabelLayout)
}

// AppointmentDetail is an appointment joined with the names shown on
// schedule listings.
type AppointmentDetail struct {
	Appointment
	DoctorName  string `db:"doctor_name" json:"doctor_name"`
	PatientName string `db:"patient_name" json:"patient_name"`
}

type BookAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required,futuretime"`
}

type UpdateAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required,futuretime"`
}
