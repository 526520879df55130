package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
)

// Store persists users and their roles. Missing users yield an apperr NotFound,
// duplicate emails an apperr Conflict.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetRoles(ctx context.Context, id uuid.UUID, roles []models.Role) error
	CountWithRole(ctx context.Context, role models.Role) (int, error)
}
