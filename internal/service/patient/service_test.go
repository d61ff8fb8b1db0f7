package patient

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

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

func (r *fakePatientRepo) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *fakePatientRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	for _, p := range r.patients {
		if p.Email == email || p.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func newTestService() (*Service, *fakePatientRepo) {
	repo := newFakePatientRepo()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewJWTService("test-secret", time.Hour)
	return NewService(repo, hasher, tokens), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService()

	p, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "555-0200",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.NotEqual(t, "supersecret", p.PasswordHash)
	assert.Len(t, repo.patients, 1)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService()

	first := &model.RegisterPatientRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "555-0200",
		Password: "supersecret",
	}
	_, err := svc.Register(context.Background(), first)
	require.NoError(t, err)

	// Same email, different phone.
	_, err = svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Janet Doe",
		Email:    "jane@example.com",
		Phone:    "555-0201",
		Password: "supersecret",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	// Same phone, different email.
	_, err = svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Janet Doe",
		Email:    "janet@example.com",
		Phone:    "555-0200",
		Password: "supersecret",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "555-0200",
		Password: "supersecret",
	})
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "wrongpassword",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}
