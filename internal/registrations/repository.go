package registrations

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

var (
	errEventNotFound        = apperr.NotFound("event not found")
	errRegistrationNotFound = apperr.NotFound("registration not found")
)

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByEvent returns registrations of an event with the registrant emails, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationSummary, error) {
	const q = `SELECT r.user_id, u.email, r.date, r.answers
		FROM registrations r JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.date`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.RegistrationSummary{}
	for rows.Next() {
		var s models.RegistrationSummary
		if err := rows.Scan(&s.UserID, &s.Email, &s.Date, &s.Answers); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

const selectDetail = `SELECT r.event_id, r.user_id, r.date, r.answers, r.created_at, r.updated_at, u.email,
		e.id, e.name, e.description, e.date, e.signup_deadline, e.location, e.people_limit, e.fields, e.created_at, e.updated_at
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN events e ON e.id = r.event_id
		WHERE r.event_id = $1 AND r.user_id = $2`

func getDetail(ctx context.Context, db database.DBTX, eventID, userID uuid.UUID, lock bool) (*models.RegistrationDetail, error) {
	q := selectDetail
	if lock {
		q += ` FOR UPDATE OF r`
	}
	var d models.RegistrationDetail
	ev := &d.Event
	err := db.QueryRow(ctx, q, eventID, userID).Scan(
		&d.EventID, &d.UserID, &d.Date, &d.Answers, &d.CreatedAt, &d.UpdatedAt, &d.Email,
		&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.SignupDeadline, &ev.Location, &ev.PeopleLimit, &ev.Fields,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if database.IsNoRows(err) {
		return nil, errRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Get returns one registration with its event and email.
func (r *Repository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationDetail, error) {
	return getDetail(ctx, r.pool, eventID, userID, false)
}

// Create locks the event row so capacity checks of concurrent signups are serialized,
// then inserts. The primary key still rejects a duplicate that slips past decide.
func (r *Repository) Create(ctx context.Context, eventID, userID uuid.UUID,
	decide func(st models.SignupState) (*models.Registration, []models.EmailLog, error)) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var ev models.Event
		err := tx.QueryRow(ctx, `SELECT id, name, description, date, signup_deadline, location, people_limit, fields, created_at, updated_at
			FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(
			&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.SignupDeadline, &ev.Location, &ev.PeopleLimit, &ev.Fields,
			&ev.CreatedAt, &ev.UpdatedAt)
		if database.IsNoRows(err) {
			return errEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}

		st := models.SignupState{Event: &ev}
		const stateQ = `SELECT
			(SELECT COUNT(*) FROM registrations WHERE event_id = $1),
			EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2),
			COALESCE((SELECT email FROM users WHERE id = $2), '')`
		if err := tx.QueryRow(ctx, stateQ, eventID, userID).Scan(&st.Registered, &st.Exists, &st.Email); err != nil {
			return fmt.Errorf("load signup state: %w", err)
		}

		reg, notices, err := decide(st)
		if err != nil {
			return err
		}
		const ins = `INSERT INTO registrations (event_id, user_id, date, answers, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.Exec(ctx, ins, reg.EventID, reg.UserID, reg.Date, reg.Answers, reg.CreatedAt, reg.UpdatedAt); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict(MsgAlreadyRegistered)
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		logs = notices
		return emaillogs.InsertTx(ctx, tx, notices)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// UpdateAnswers locks the registration, runs apply and saves the new answers.
func (r *Repository) UpdateAnswers(ctx context.Context, eventID, userID uuid.UUID, apply func(d *models.RegistrationDetail) error) (*models.Registration, error) {
	var out *models.Registration
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		d, err := getDetail(ctx, tx, eventID, userID, true)
		if err != nil {
			return err
		}
		if err := apply(d); err != nil {
			return err
		}
		const q = `UPDATE registrations SET answers = $3, date = $4, updated_at = $5 WHERE event_id = $1 AND user_id = $2`
		tag, err := tx.Exec(ctx, q, eventID, userID, d.Answers, d.Date, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errRegistrationNotFound
		}
		out = &d.Registration
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a registration once check approves it and stores the rows check returns.
func (r *Repository) Delete(ctx context.Context, eventID, userID uuid.UUID,
	check func(d *models.RegistrationDetail) ([]models.EmailLog, error)) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		d, err := getDetail(ctx, tx, eventID, userID, true)
		if err != nil {
			return err
		}
		if logs, err = check(d); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errRegistrationNotFound
		}
		return emaillogs.InsertTx(ctx, tx, logs)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
