package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

// Users implements the identity store.
type Users struct {
	db *DB
}

func copyUser(u *models.User) models.User {
	out := *u
	out.Roles = append([]models.Role{}, u.Roles...)
	return out
}

// Create inserts u; emails are unique case-insensitively.
func (s *Users) Create(_ context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, have := range s.db.users {
		if strings.EqualFold(have.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	c := copyUser(u)
	s.db.users[u.ID] = &c
	return nil
}

// GetByEmail returns the user with the given email.
func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

// GetByID returns the user with the given id.
func (s *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	c := copyUser(u)
	return &c, nil
}

// List returns all users by email.
func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// SetRoles replaces the user's roles.
func (s *Users) SetRoles(_ context.Context, id uuid.UUID, roles []models.Role) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Roles = append([]models.Role{}, roles...)
	return nil
}

// CountWithRole counts users holding role.
func (s *Users) CountWithRole(_ context.Context, role models.Role) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, u := range s.db.users {
		if u.HasRole(role) {
			n++
		}
	}
	return n, nil
}
