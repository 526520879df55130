package registrations

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
)

// Store persists registrations. Missing events or registrations yield an apperr NotFound.
type Store interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationSummary, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationDetail, error)

	// Create locks the event and hands decide the signup state. The registration
	// and outbox rows decide returns are inserted in the same transaction.
	Create(ctx context.Context, eventID, userID uuid.UUID,
		decide func(st models.SignupState) (*models.Registration, []models.EmailLog, error)) ([]models.EmailLog, error)

	// UpdateAnswers loads the registration and saves it after apply mutates it.
	UpdateAnswers(ctx context.Context, eventID, userID uuid.UUID, apply func(d *models.RegistrationDetail) error) (*models.Registration, error)

	// Delete removes the registration once check approves it, storing the rows check returns.
	Delete(ctx context.Context, eventID, userID uuid.UUID,
		check func(d *models.RegistrationDetail) ([]models.EmailLog, error)) ([]models.EmailLog, error)
}
