package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
)

// NoticeFunc builds outbox rows inside the store transaction, seeing the event
// and its registrants before the mutation is applied.
type NoticeFunc = func(ev *models.Event, regs []models.Registrant) ([]models.EmailLog, error)

// Store persists events. Missing events yield an apperr NotFound.
type Store interface {
	Create(ctx context.Context, ev *models.Event) error
	Get(ctx context.Context, id uuid.UUID) (*models.EventWithCount, error)
	List(ctx context.Context) ([]models.EventWithCount, error)
	ListJoined(ctx context.Context, userID uuid.UUID) ([]models.EventWithCount, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error)

	// Update locks the event, runs notice, then runs apply on it and saves the result.
	// With reset set, every registration of the event is deleted in the same transaction.
	// The returned rows are the stored outbox entries.
	Update(ctx context.Context, id uuid.UUID, reset bool, notice NoticeFunc, apply func(ev *models.Event) error) (*models.Event, []models.EmailLog, error)

	// Delete removes the event and, by cascade, its registrations, storing the rows notice returns.
	Delete(ctx context.Context, id uuid.UUID, notice NoticeFunc) ([]models.EmailLog, error)
}
