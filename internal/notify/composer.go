package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/utils"
)

// Composer turns a notification about an event into a pending outbox row.
type Composer struct {
	catalog *Catalog
}

// NewComposer creates a composer over catalog.
func NewComposer(catalog *Catalog) *Composer {
	return &Composer{catalog: catalog}
}

// Compose renders kind for one recipient.
func (c *Composer) Compose(kind models.NotificationKind, ev *models.Event, to models.Registrant, now time.Time) (models.EmailLog, error) {
	date := c.catalog.undated
	if ev.Date != nil {
		date = ev.Date.Format(c.catalog.dateFormat)
	}
	subject, body, err := c.catalog.Render(kind, MessageData{
		UserName:  utils.NameFromEmail(to.Email),
		EventName: ev.Name,
		EventDate: date,
	})
	if err != nil {
		return models.EmailLog{}, err
	}
	eventID, userID := ev.ID, to.UserID
	return models.EmailLog{
		ID:             uuid.New(),
		EventID:        &eventID,
		UserID:         &userID,
		Kind:           kind,
		RecipientEmail: to.Email,
		Subject:        subject,
		BodyHTML:       body,
		Status:         models.EmailLogStatusPending,
		CreatedAt:      now,
	}, nil
}

// ComposeAll renders kind for every registrant that has an email address.
func (c *Composer) ComposeAll(kind models.NotificationKind, ev *models.Event, regs []models.Registrant, now time.Time) ([]models.EmailLog, error) {
	out := make([]models.EmailLog, 0, len(regs))
	for _, r := range regs {
		if r.Email == "" {
			continue
		}
		log, err := c.Compose(kind, ev, r, now)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}
