package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Service struct {
	repo         repository.DoctorRepository
	appointments repository.AppointmentRepository
	hasher       security.PasswordHasher
	tokens       auth.TokenService
	slotTemplate []string
	cache        *gocache.Cache
}

func NewService(repo repository.DoctorRepository, appointments repository.AppointmentRepository,
	hasher security.PasswordHasher, tokens auth.TokenService, slotTemplate []string) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		hasher:       hasher,
		tokens:       tokens,
		slotTemplate: slotTemplate,
		cache:        gocache.New(cacheTTL, cacheCleanup),
	}
}

// GetAvailability returns the slot template minus the labels already booked
// for the doctor on the given day. A doctor with no appointments gets the
// full template.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	exists, err := s.repo.Exists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("doctor", nil)
	}

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	appointments, err := s.appointments.ListForDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]struct{}, len(appointments))
	for _, apt := range appointments {
		if apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		booked[apt.SlotLabel()] = struct{}{}
	}

	available := make([]string, 0, len(s.slotTemplate))
	for _, slot := range s.slotTemplate {
		if _, taken := booked[slot]; !taken {
			available = append(available, slot)
		}
	}
	return available, nil
}

// Register creates a doctor record. Duplicate email is a conflict.
func (s *Service) Register(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("invalid password", err)
	}

	doctor := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Phone:          req.Phone,
		PasswordHash:   hash,
		AvailableTimes: req.AvailableTimes,
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, found := s.cache.Get(id.String()); found {
		return cached.(*model.Doctor), nil
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(id.String(), doctor, gocache.DefaultExpiration)
	return doctor, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.AvailableTimes != nil {
		doctor.AvailableTimes = req.AvailableTimes
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, err
	}

	s.cache.Delete(id.String())
	return doctor, nil
}

// Delete removes the doctor; their appointments go with them.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

// List returns doctors matching the filter; empty filter fields match all.
func (s *Service) List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, error) {
	if filter != nil && filter.Time != "" {
		if filter.Time != model.AvailabilityAM && filter.Time != model.AvailabilityPM {
			return nil, apperrors.Validation("time filter must be AM or PM", nil)
		}
	}
	return s.repo.List(ctx, filter)
}

// Login validates doctor credentials and issues a doctor-role token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	doctor, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return nil, err
	}

	if err := s.hasher.Compare(doctor.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	token, expiresAt, err := s.tokens.Generate(doctor.ID, doctor.Email, model.RoleDoctor)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}
