package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/database"
)

const eventColumns = `e.id, e.name, e.description, e.date, e.signup_deadline, e.location, e.people_limit, e.fields, e.created_at, e.updated_at`

const selectWithCount = `SELECT ` + eventColumns + `,
		(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)
		FROM events e`

var errNotFound = apperr.NotFound("event not found")

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func eventDest(ev *models.Event) []any {
	return []any{&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.SignupDeadline, &ev.Location,
		&ev.PeopleLimit, &ev.Fields, &ev.CreatedAt, &ev.UpdatedAt}
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (id, name, description, date, signup_deadline, location, people_limit, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, q, ev.ID, ev.Name, ev.Description, ev.Date, ev.SignupDeadline, ev.Location,
		ev.PeopleLimit, ev.Fields, ev.CreatedAt, ev.UpdatedAt)
	return err
}

// Get returns an event with its registrant count.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.EventWithCount, error) {
	var ev models.EventWithCount
	err := r.pool.QueryRow(ctx, selectWithCount+` WHERE e.id = $1`, id).Scan(append(eventDest(&ev.Event), &ev.Registered)...)
	if database.IsNoRows(err) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.EventWithCount, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventWithCount
	for rows.Next() {
		var ev models.EventWithCount
		if err := rows.Scan(append(eventDest(&ev.Event), &ev.Registered)...); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// List returns every event in creation order.
func (r *Repository) List(ctx context.Context) ([]models.EventWithCount, error) {
	return r.list(ctx, selectWithCount+` ORDER BY e.created_at`)
}

// ListJoined returns the events userID is registered for.
func (r *Repository) ListJoined(ctx context.Context, userID uuid.UUID) ([]models.EventWithCount, error) {
	return r.list(ctx, selectWithCount+`
		WHERE EXISTS (SELECT 1 FROM registrations j WHERE j.event_id = e.id AND j.user_id = $1)
		ORDER BY e.created_at`, userID)
}

// Exists reports whether the event exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// IsRegistered reports whether userID holds a registration for eventID.
func (r *Repository) IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`, eventID, userID).Scan(&ok)
	return ok, err
}

// lockEvent loads the event row FOR UPDATE.
func lockEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Event, error) {
	var ev models.Event
	err := tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, id).Scan(eventDest(&ev)...)
	if database.IsNoRows(err) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return &ev, nil
}

func registrants(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) ([]models.Registrant, error) {
	rows, err := tx.Query(ctx, `SELECT r.user_id, u.email FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1 ORDER BY u.email`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load registrants: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Registrant, error) {
		var reg models.Registrant
		err := row.Scan(&reg.UserID, &reg.Email)
		return reg, err
	})
}

// Update locks the event, builds notices, applies the change and saves, all in one transaction.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, reset bool, notice NoticeFunc, apply func(ev *models.Event) error) (*models.Event, []models.EmailLog, error) {
	var (
		out  *models.Event
		logs []models.EmailLog
	)
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ev, err := lockEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if notice != nil {
			regs, err := registrants(ctx, tx, id)
			if err != nil {
				return err
			}
			snapshot := *ev
			if logs, err = notice(&snapshot, regs); err != nil {
				return err
			}
		}
		if err := apply(ev); err != nil {
			return err
		}
		if reset {
			if _, err := tx.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, id); err != nil {
				return fmt.Errorf("clear registrations: %w", err)
			}
		}
		const q = `UPDATE events SET name = $2, description = $3, date = $4, signup_deadline = $5, location = $6,
			people_limit = $7, fields = $8, updated_at = $9 WHERE id = $1`
		tag, err := tx.Exec(ctx, q, ev.ID, ev.Name, ev.Description, ev.Date, ev.SignupDeadline, ev.Location,
			ev.PeopleLimit, ev.Fields, ev.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		out = ev
		return emaillogs.InsertTx(ctx, tx, logs)
	})
	if err != nil {
		return nil, nil, err
	}
	return out, logs, nil
}

// Delete removes the event; registrations go with it by ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, notice NoticeFunc) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ev, err := lockEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if notice != nil {
			regs, err := registrants(ctx, tx, id)
			if err != nil {
				return err
			}
			if logs, err = notice(ev, regs); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return emaillogs.InsertTx(ctx, tx, logs)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
