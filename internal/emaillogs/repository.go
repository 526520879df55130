package emaillogs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/database"
)

const selectColumns = `SELECT id, event_id, user_id, kind, recipient_email, subject, body_html, status, attempts, sent_at, error_message, created_at
		FROM email_logs`

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx writes outbox rows inside tx, the transaction of the mutation they report on.
func InsertTx(ctx context.Context, tx pgx.Tx, logs []models.EmailLog) error {
	if len(logs) == 0 {
		return nil
	}
	const q = `INSERT INTO email_logs (id, event_id, user_id, kind, recipient_email, subject, body_html, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(q, l.ID, l.EventID, l.UserID, l.Kind, l.RecipientEmail, l.Subject, l.BodyHTML, l.Status, l.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert email logs: %w", err)
	}
	return nil
}

func scanLog(row pgx.Row) (*models.EmailLog, error) {
	var el models.EmailLog
	var errMsg *string
	if err := row.Scan(&el.ID, &el.EventID, &el.UserID, &el.Kind, &el.RecipientEmail, &el.Subject, &el.BodyHTML,
		&el.Status, &el.Attempts, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
		return nil, err
	}
	if errMsg != nil {
		el.ErrorMessage = *errMsg
	}
	return &el, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.EmailLog{}
	for rows.Next() {
		el, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *el)
	}
	return list, rows.Err()
}

// Get returns one row.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	el, err := scanLog(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, errNotFound
	}
	return el, err
}

// ListByEvent returns email logs for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error) {
	return r.list(ctx, selectColumns+` WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
}

// ListPending returns pending rows created before createdBefore, oldest first.
func (r *Repository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.EmailLog, error) {
	return r.list(ctx, selectColumns+` WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`, createdBefore, limit)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

var errNotFound = apperr.NotFound("email log not found")

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, `UPDATE email_logs SET status = 'sent', attempts = attempts + 1, sent_at = $2, error_message = NULL WHERE id = $1`, id, at)
}

// MarkFailed records a failed attempt; final moves the row out of pending.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, msg string, final bool) error {
	return r.exec(ctx, `UPDATE email_logs
		SET attempts = attempts + 1, error_message = $2, status = CASE WHEN $3 THEN 'failed' ELSE status END
		WHERE id = $1`, id, msg, final)
}

// Requeue puts a failed row of eventID back to pending.
func (r *Repository) Requeue(ctx context.Context, eventID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = 'pending' WHERE id = $1 AND event_id = $2 AND status = 'failed'`, id, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotRequeueable
	}
	return nil
}
