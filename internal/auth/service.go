package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/utils"
)

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 6

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service is the identity collaborator: accounts, logins and role membership.
type Service struct {
	store      Store
	jwt        *JWTService
	clock      clock.Clock
	adminEmail string
	logger     *zap.Logger
}

// NewService creates the identity service. adminEmail names the bootstrap administrator.
func NewService(store Store, jwt *JWTService, clk clock.Clock, adminEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{store: store, jwt: jwt, clock: clk, adminEmail: strings.ToLower(adminEmail), logger: logger}
}

// Session is a signed token with its user.
type Session struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.jwt.Generate(u)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: u.ToPublic()}, nil
}

func (s *Service) create(ctx context.Context, email, password string, roles []models.Role) (*models.User, error) {
	normalized, ok := utils.NormalizeEmail(email)
	if !ok {
		return nil, apperr.Validation("invalid email")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > utils.MaxPasswordBytes {
		return nil, apperr.Validation(fmt.Sprintf("password must be at most %d bytes", utils.MaxPasswordBytes))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock.Now()
	u := &models.User{
		ID:        uuid.New(),
		Email:     normalized,
		Password:  hash,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Register creates an account with the User role and signs it in.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.create(ctx, email, password, []models.Role{models.RoleUser})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return s.session(u)
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Me returns the user, assigning the User role when it has none.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(u.Roles) == 0 {
		u.Roles = []models.Role{models.RoleUser}
		if err := s.store.SetRoles(ctx, id, u.Roles); err != nil {
			return nil, fmt.Errorf("assign default role: %w", err)
		}
	}
	return u, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]models.UserPublic, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserPublic, len(users))
	for i := range users {
		out[i] = users[i].ToPublic()
	}
	return out, nil
}

// Promote makes the user an Administrator in place of the User role.
func (s *Service) Promote(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Roles = []models.Role{models.RoleAdmin}
	if err := s.store.SetRoles(ctx, id, u.Roles); err != nil {
		return nil, err
	}
	s.logger.Info("user promoted", zap.String("user_id", id.String()))
	return u, nil
}

// Demote returns an Administrator to the User role. The bootstrap administrator stays.
func (s *Service) Demote(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.adminEmail != "" && strings.EqualFold(u.Email, s.adminEmail) {
		return nil, apperr.Forbidden("cannot demote the bootstrap administrator")
	}
	if !u.HasRole(models.RoleAdmin) {
		return nil, apperr.Validation("user is not an administrator")
	}
	admins, err := s.store.CountWithRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins <= 1 {
		return nil, apperr.Validation("cannot remove the last administrator")
	}
	u.Roles = []models.Role{models.RoleUser}
	if err := s.store.SetRoles(ctx, id, u.Roles); err != nil {
		return nil, err
	}
	s.logger.Info("user demoted", zap.String("user_id", id.String()))
	return u, nil
}

// EnsureAdmin creates the bootstrap administrator if no account uses its email.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if s.adminEmail == "" {
		return nil
	}
	_, err := s.store.GetByEmail(ctx, s.adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if password == "" {
		s.logger.Warn("ADMIN_PASSWORD not set, skipping administrator bootstrap", zap.String("email", s.adminEmail))
		return nil
	}
	u, err := s.create(ctx, s.adminEmail, password, []models.Role{models.RoleAdmin})
	if err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}
	s.logger.Info("administrator created", zap.String("user_id", u.ID.String()), zap.String("email", u.Email))
	return nil
}
