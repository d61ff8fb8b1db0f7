package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type Service struct {
	repo   repository.AdminRepository
	hasher security.PasswordHasher
	tokens auth.TokenService
}

func NewService(repo repository.AdminRepository, hasher security.PasswordHasher, tokens auth.TokenService) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Login validates admin credentials and issues an admin-role token.
func (s *Service) Login(ctx context.Context, req *model.AdminLoginRequest) (*model.TokenResponse, error) {
	admin, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return nil, err
	}

	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	token, expiresAt, err := s.tokens.Generate(admin.ID, admin.Username, model.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Bootstrap creates the admin account if one with the username does not
// already exist. Called at startup, never over the API.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	return s.repo.Create(ctx, &model.Admin{
		Base:         model.Base{ID: uuid.New()},
		Username:     username,
		PasswordHash: hash,
	})
}
