package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription lives in the document store, one per appointment. The
// appointment id is stored as its string form to keep the documents
// portable across driver codecs.
type Prescription struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppointmentID string             `bson:"appointment_id" json:"appointment_id"`
	PatientName   string             `bson:"patient_name" json:"patient_name"`
	Medication    string             `bson:"medication" json:"medication"`
	Dosage        string             `bson:"dosage" json:"dosage"`
	DoctorNotes   string             `bson:"doctor_notes,omitempty" json:"doctor_notes,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

type CreatePrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	PatientName   string    `json:"patient_name" binding:"required,min=3,max=100"`
	Medication    string    `json:"medication" binding:"required,min=3,max=100"`
	Dosage        string    `json:"dosage" binding:"required,min=3,max=20"`
	DoctorNotes   string    `json:"doctor_notes" binding:"max=200"`
}
