//go:build integration

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/testutil/containers"
)

var _ auth.Store = (*auth.Repository)(nil)

type RepositorySuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	ctx  context.Context
	repo *auth.Repository
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.pg = containers.Postgres(s.T())
	s.ctx = context.Background()
	s.repo = auth.NewRepository(s.pg.Pool)
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Reset(s.ctx))
}

func (s *RepositorySuite) newUser(email string, roles ...models.Role) *models.User {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	u := &models.User{ID: uuid.New(), Email: email, Password: "hash", Roles: roles, CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.repo.Create(s.ctx, u))
	return u
}

func (s *RepositorySuite) TestCreateAndLookup() {
	u := s.newUser("ann@example.com", models.RoleUser)

	byEmail, err := s.repo.GetByEmail(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
	s.Equal("hash", byEmail.Password)
	s.Equal([]models.Role{models.RoleUser}, byEmail.Roles)

	byID, err := s.repo.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("ann@example.com", byID.Email)

	_, err = s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.repo.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *RepositorySuite) TestDuplicateEmailConflicts() {
	s.newUser("ann@example.com", models.RoleUser)
	dup := &models.User{ID: uuid.New(), Email: "ann@example.com", Password: "hash", Roles: []models.Role{models.RoleUser}}
	s.ErrorIs(s.repo.Create(s.ctx, dup), apperr.ErrConflict)

	_, err := s.repo.GetByID(s.ctx, dup.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *RepositorySuite) TestSetRolesAndCount() {
	ann := s.newUser("ann@example.com", models.RoleUser)
	s.newUser("bob@example.com", models.RoleAdmin, models.RoleUser)

	n, err := s.repo.CountWithRole(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.Require().NoError(s.repo.SetRoles(s.ctx, ann.ID, []models.Role{models.RoleAdmin, models.RoleUser}))
	n, err = s.repo.CountWithRole(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.repo.GetByID(s.ctx, ann.ID)
	s.Require().NoError(err)
	s.True(got.HasRole(models.RoleAdmin))

	s.ErrorIs(s.repo.SetRoles(s.ctx, uuid.New(), []models.Role{models.RoleUser}), apperr.ErrNotFound)
}

func (s *RepositorySuite) TestListOrderedByEmail() {
	s.newUser("carl@example.com", models.RoleUser)
	s.newUser("ann@example.com", models.RoleUser)

	list, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("ann@example.com", list[0].Email)
	s.Equal("carl@example.com", list[1].Email)
}

func (s *RepositorySuite) TestServiceOverPostgres() {
	svc := auth.NewService(s.repo, auth.NewJWTService("secret", 1), clock.System{}, "admin@example.com", nil)
	s.Require().NoError(svc.EnsureAdmin(s.ctx, "admin-pass"))
	s.Require().NoError(svc.EnsureAdmin(s.ctx, "admin-pass"))

	admins, err := s.repo.CountWithRole(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(1, admins)

	sess, err := svc.Register(s.ctx, " Dana@Example.com ", "secret1")
	s.Require().NoError(err)
	s.NotEmpty(sess.Token)

	_, err = svc.Login(s.ctx, "dana@example.com", "secret1")
	s.Require().NoError(err)
}
