package emaillogs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

var errNotRequeueable = apperr.NotFound("no failed email log with that id for this event")

// Store reads and updates the notification outbox.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.EmailLog, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string, final bool) error
	Requeue(ctx context.Context, eventID, id uuid.UUID) error
}
