package model

import (
	"github.com/lib/pq"
)

// Doctor availability is modelled as coarse AM/PM tags; per-slot
// availability is always derived from booked appointments.
const (
	AvailabilityAM = "AM"
	AvailabilityPM = "PM"
)

type Doctor struct {
	Base
	Name           string         `db:"name" json:"name"`
	Specialty      string         `db:"specialty" json:"specialty"`
	Email          string         `db:"email" json:"email"`
	Phone          string         `db:"phone" json:"phone"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	AvailableTimes pq.StringArray `db:"available_times" json:"available_times"`
}

type CreateDoctorRequest struct {
	Name           string   `json:"name" binding:"required"`
	Specialty      string   `json:"specialty" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Phone          string   `json:"phone" binding:"required"`
	Password       string   `json:"password" binding:"required,min=8"`
	AvailableTimes []string `json:"available_times" binding:"omitempty,dive,oneof=AM PM"`
}

type UpdateDoctorRequest struct {
	Name           *string  `json:"name"`
	Specialty      *string  `json:"specialty"`
	Phone          *string  `json:"phone"`
	AvailableTimes []string `json:"available_times" binding:"omitempty,dive,oneof=AM PM"`
}

// DoctorFilter narrows doctor listings; empty fields are ignored.
type DoctorFilter struct {
	Name      string `form:"name"`
	Specialty string `form:"specialty"`
	Time      string `form:"time"` // "AM" or "PM"
}
