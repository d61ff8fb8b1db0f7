package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var testTemplate = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00"}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	for _, existing := range r.doctors {
		if existing.Email == d.Email {
			return apperrors.Conflict("doctor already exists", nil)
		}
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	for _, d := range r.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	if _, ok := r.doctors[d.ID]; !ok {
		return apperrors.NotFound("doctor", nil)
	}
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.doctors[id]; !ok {
		return apperrors.NotFound("doctor", nil)
	}
	delete(r.doctors, id)
	return nil
}

func (r *fakeDoctorRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.doctors[id]
	return ok, nil
}

func (r *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorFilter) ([]*model.Doctor, error) {
	var result []*model.Doctor
	for _, d := range r.doctors {
		result = append(result, d)
	}
	return result, nil
}

// fakeScheduleRepo serves only the day-range listing the availability
// calculation needs.
type fakeScheduleRepo struct {
	details []*model.AppointmentDetail
}

func (r *fakeScheduleRepo) Create(context.Context, *model.Appointment) error { return nil }
func (r *fakeScheduleRepo) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (r *fakeScheduleRepo) Update(context.Context, *model.Appointment) error { return nil }
func (r *fakeScheduleRepo) UpdateStatus(context.Context, uuid.UUID, model.AppointmentStatus) error {
	return nil
}
func (r *fakeScheduleRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (r *fakeScheduleRepo) ExistsConflict(context.Context, uuid.UUID, time.Time, *uuid.UUID) (bool, error) {
	return false, nil
}
func (r *fakeScheduleRepo) ListForDoctorBetween(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*model.AppointmentDetail, error) {
	var result []*model.AppointmentDetail
	for _, d := range r.details {
		if !d.StartTime.Before(from) && d.StartTime.Before(to) {
			result = append(result, d)
		}
	}
	return result, nil
}
func (r *fakeScheduleRepo) ListForPatient(context.Context, uuid.UUID, *model.AppointmentStatus, string) ([]*model.AppointmentDetail, error) {
	return nil, nil
}

func detailAt(doctorID uuid.UUID, day time.Time, hour int, status model.AppointmentStatus) *model.AppointmentDetail {
	return &model.AppointmentDetail{
		Appointment: model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			DoctorID:  doctorID,
			StartTime: time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC),
			Status:    status,
		},
	}
}

func newTestService(doctors *fakeDoctorRepo, schedule *fakeScheduleRepo) *Service {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewJWTService("test-secret", time.Hour)
	return NewService(doctors, schedule, hasher, tokens, testTemplate)
}

func TestGetAvailabilityFullTemplate(t *testing.T) {
	doctors := newFakeDoctorRepo()
	doc := &model.Doctor{Base: model.Base{ID: uuid.New()}, Email: "d@example.com"}
	doctors.doctors[doc.ID] = doc

	svc := newTestService(doctors, &fakeScheduleRepo{})

	slots, err := svc.GetAvailability(context.Background(), doc.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, testTemplate, slots)
}

func TestGetAvailabilityExcludesBooked(t *testing.T) {
	doctors := newFakeDoctorRepo()
	doc := &model.Doctor{Base: model.Base{ID: uuid.New()}, Email: "d@example.com"}
	doctors.doctors[doc.ID] = doc

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := &fakeScheduleRepo{details: []*model.AppointmentDetail{
		detailAt(doc.ID, day, 10, model.AppointmentStatusScheduled),
		detailAt(doc.ID, day, 14, model.AppointmentStatusScheduled),
		detailAt(doc.ID, day, 9, model.AppointmentStatusCancelled),
	}}

	svc := newTestService(doctors, schedule)

	slots, err := svc.GetAvailability(context.Background(), doc.ID, day)
	require.NoError(t, err)
	// Cancelled bookings free their slot; template order is preserved.
	assert.Equal(t, []string{"09:00", "11:00", "13:00", "15:00"}, slots)
}

func TestGetAvailabilityUnknownDoctor(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo(), &fakeScheduleRepo{})

	_, err := svc.GetAvailability(context.Background(), uuid.New(), time.Now().UTC())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo(), &fakeScheduleRepo{})

	req := &model.CreateDoctorRequest{
		Name:      "Dr. Strange",
		Specialty: "Cardiology",
		Email:     "strange@example.com",
		Phone:     "555-0100",
		Password:  "supersecret",
	}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo(), &fakeScheduleRepo{})

	_, err := svc.Register(context.Background(), &model.CreateDoctorRequest{
		Name:      "Dr. Who",
		Specialty: "General",
		Email:     "who@example.com",
		Phone:     "555-0101",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "who@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "who@example.com",
		Password: "wrongpassword",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestListRejectsBadTimeFilter(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo(), &fakeScheduleRepo{})

	_, err := svc.List(context.Background(), &model.DoctorFilter{Time: "evening"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateInvalidatesCache(t *testing.T) {
	doctors := newFakeDoctorRepo()
	svc := newTestService(doctors, &fakeScheduleRepo{})

	doc, err := svc.Register(context.Background(), &model.CreateDoctorRequest{
		Name:      "Dr. Old",
		Specialty: "General",
		Email:     "old@example.com",
		Phone:     "555-0102",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	// Prime the cache.
	got, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Old", got.Name)

	newName := "Dr. New"
	_, err = svc.Update(context.Background(), doc.ID, &model.UpdateDoctorRequest{Name: &newName})
	require.NoError(t, err)

	got, err = svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. New", got.Name)
}
