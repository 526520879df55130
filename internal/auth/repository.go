package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/database"
)

var errUserNotFound = apperr.NotFound("user not found")

const selectUser = `SELECT u.id, u.email, u.password_hash, u.created_at, u.updated_at,
		COALESCE(ARRAY(SELECT role FROM user_roles r WHERE r.user_id = u.id ORDER BY role), '{}')
		FROM users u`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var roles []string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt, &roles); err != nil {
		return nil, err
	}
	u.Roles = make([]models.Role, len(roles))
	for i, r := range roles {
		u.Roles[i] = models.Role(r)
	}
	return &u, nil
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE `+where, arg))
	if database.IsNoRows(err) {
		return nil, errUserNotFound
	}
	return u, err
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `u.email = $1`, email)
}

// List returns all users ordered by email.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

func insertRoles(ctx context.Context, tx pgx.Tx, id uuid.UUID, roles []models.Role) error {
	for _, role := range roles {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, id, string(role)); err != nil {
			return fmt.Errorf("insert role: %w", err)
		}
	}
	return nil
}

// Create inserts a new user with its roles.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, q, u.ID, u.Email, u.Password, u.CreatedAt, u.UpdatedAt); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("email already registered")
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return insertRoles(ctx, tx, u.ID, u.Roles)
	})
}

// SetRoles replaces the user's roles atomically.
func (r *Repository) SetRoles(ctx context.Context, id uuid.UUID, roles []models.Role) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errUserNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("clear roles: %w", err)
		}
		return insertRoles(ctx, tx, id, roles)
	})
}

// CountWithRole counts users holding role.
func (r *Repository) CountWithRole(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}
