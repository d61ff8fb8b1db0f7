package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) (err error) {
	defer r.observe(time.Now(), "admin_create", &err)

	query := `
		INSERT INTO admins (id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Username,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("admin already exists", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to create admin: %w", err))
	}
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (_ *model.Admin, err error) {
	defer r.observe(time.Now(), "admin_get_by_username", &err)

	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admins
		WHERE username = $1
	`
	var admin model.Admin
	err = r.db.GetContext(ctx, &admin, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("admin", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get admin: %w", err))
	}
	return &admin, nil
}
