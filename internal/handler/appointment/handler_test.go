package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/router"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Metrics register against the global Prometheus registry, so build them
// once for the whole test binary.
var testMetrics = metrics.New("clinic_test")

type stubAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *stubAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.appointments[apt.ID] = apt
	return nil
}

func (r *stubAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (r *stubAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	r.appointments[apt.ID] = apt
	return nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.appointments[id].Status = status
	return nil
}

func (r *stubAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.appointments, id)
	return nil
}

func (r *stubAppointmentRepo) ExistsConflict(_ context.Context, doctorID uuid.UUID, startTime time.Time, excludeID *uuid.UUID) (bool, error) {
	for id, apt := range r.appointments {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if apt.DoctorID == doctorID && apt.StartTime.Equal(startTime) &&
			apt.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAppointmentRepo) ListForDoctorBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]*model.AppointmentDetail, error) {
	return nil, nil
}

func (r *stubAppointmentRepo) ListForPatient(context.Context, uuid.UUID, *model.AppointmentStatus, string) ([]*model.AppointmentDetail, error) {
	return nil, nil
}

type stubDoctorRepo struct {
	id uuid.UUID
}

func (r *stubDoctorRepo) Create(context.Context, *model.Doctor) error { return nil }
func (r *stubDoctorRepo) Get(context.Context, uuid.UUID) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor", nil)
}
func (r *stubDoctorRepo) GetByEmail(context.Context, string) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor", nil)
}
func (r *stubDoctorRepo) Update(context.Context, *model.Doctor) error { return nil }
func (r *stubDoctorRepo) Delete(context.Context, uuid.UUID) error     { return nil }
func (r *stubDoctorRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return id == r.id, nil
}
func (r *stubDoctorRepo) List(context.Context, *model.DoctorFilter) ([]*model.Doctor, error) {
	return nil, nil
}

func setupServer(t *testing.T, doctorID uuid.UUID) (http.Handler, auth.TokenService) {
	t.Helper()

	repo := &stubAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
	svc := appointment.NewService(repo, &stubDoctorRepo{id: doctorID}, nil, nil, nil)

	tokens := auth.NewJWTService("test-secret", time.Hour)
	authMW := middleware.NewAuthMiddleware(tokens)

	r := router.New(router.DefaultConfig(), testMetrics, NewHandler(svc, authMW))
	r.Setup()
	return r.Engine(), tokens
}

func bearerFor(t *testing.T, tokens auth.TokenService, role model.Role) string {
	t.Helper()
	token, _, err := tokens.Generate(uuid.New(), "subject@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func bookBody(t *testing.T, doctorID uuid.UUID, start time.Time) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(model.BookAppointmentRequest{DoctorID: doctorID, StartTime: start})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestBookRequiresAuth(t *testing.T) {
	doctorID := uuid.New()
	srv, _ := setupServer(t, doctorID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments",
		bookBody(t, doctorID, time.Now().UTC().Add(24*time.Hour)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookRejectsDoctorRole(t *testing.T) {
	doctorID := uuid.New()
	srv, tokens := setupServer(t, doctorID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments",
		bookBody(t, doctorID, time.Now().UTC().Add(24*time.Hour)))
	req.Header.Set("Authorization", bearerFor(t, tokens, model.RoleDoctor))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookAsPatient(t *testing.T) {
	doctorID := uuid.New()
	srv, tokens := setupServer(t, doctorID)
	slot := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	token := bearerFor(t, tokens, model.RolePatient)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bookBody(t, doctorID, slot))
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string            `json:"status"`
		Data   model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, doctorID, resp.Data.DoctorID)

	// Same slot again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bookBody(t, doctorID, slot))
	req.Header.Set("Authorization", bearerFor(t, tokens, model.RolePatient))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookRejectsPastTime(t *testing.T) {
	doctorID := uuid.New()
	srv, tokens := setupServer(t, doctorID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments",
		bookBody(t, doctorID, time.Now().UTC().Add(-time.Hour)))
	req.Header.Set("Authorization", bearerFor(t, tokens, model.RolePatient))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOwnership(t *testing.T) {
	doctorID := uuid.New()
	repo := &stubAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
	svc := appointment.NewService(repo, &stubDoctorRepo{id: doctorID}, nil, nil, nil)

	tokens := auth.NewJWTService("test-secret", time.Hour)
	authMW := middleware.NewAuthMiddleware(tokens)

	r := router.New(router.DefaultConfig(), testMetrics, NewHandler(svc, authMW))
	r.Setup()
	srv := r.Engine()

	owner := uuid.New()
	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		DoctorID:  doctorID,
		PatientID: owner,
		StartTime: time.Now().UTC().Add(24 * time.Hour),
		Status:    model.AppointmentStatusScheduled,
	}
	repo.appointments[apt.ID] = apt

	url := fmt.Sprintf("/api/v1/appointments/%s", apt.ID)

	// A stranger cannot cancel it.
	req := httptest.NewRequest(http.MethodDelete, url, nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, model.RolePatient))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner can.
	token, _, err := tokens.Generate(owner, "owner@example.com", model.RolePatient)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodDelete, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.appointments)
}
