package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const prescriptionCollection = "prescriptions"

type prescriptionRepository struct {
	coll *mongo.Collection
	m    *metrics.Metrics
}

func NewPrescriptionRepository(db *mongo.Database, m *metrics.Metrics) repository.PrescriptionRepository {
	return &prescriptionRepository{coll: db.Collection(prescriptionCollection), m: m}
}

func (r *prescriptionRepository) observe(start time.Time, op string, errp *error) {
	if r.m == nil {
		return
	}
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
	}
	r.m.DatabaseOperations.WithLabelValues(op, status).Inc()
	r.m.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) (err error) {
	defer r.observe(time.Now(), "prescription_create", &err)

	if prescription.ID.IsZero() {
		prescription.ID = primitive.NewObjectID()
	}
	prescription.CreatedAt = time.Now()

	if _, err = r.coll.InsertOne(ctx, prescription); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to insert prescription: %w", err))
	}
	return nil
}

func (r *prescriptionRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (_ *model.Prescription, err error) {
	defer r.observe(time.Now(), "prescription_get", &err)

	var prescription model.Prescription
	err = r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID.String()}).Decode(&prescription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to find prescription: %w", err))
	}
	return &prescription, nil
}

func (r *prescriptionRepository) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (_ bool, err error) {
	defer r.observe(time.Now(), "prescription_exists", &err)

	count, err := r.coll.CountDocuments(ctx, bson.M{"appointment_id": appointmentID.String()})
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to count prescriptions: %w", err))
	}
	return count > 0, nil
}
