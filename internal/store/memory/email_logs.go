package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

// EmailLogs implements the notification outbox store.
type EmailLogs struct {
	db *DB
}

// Get returns one row.
func (s *EmailLogs) Get(_ context.Context, id uuid.UUID) (*models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.emailLogs[id]
	if !ok {
		return nil, apperr.NotFound("email log not found")
	}
	c := *l
	return &c, nil
}

// ListByEvent returns the rows of an event, newest first.
func (s *EmailLogs) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.EmailLog{}
	for i := len(s.db.logOrder) - 1; i >= 0; i-- {
		l := s.db.emailLogs[s.db.logOrder[i]]
		if l.EventID != nil && *l.EventID == eventID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// ListPending returns up to limit pending rows created before createdBefore, oldest first.
func (s *EmailLogs) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.EmailLog
	for _, id := range s.db.logOrder {
		l := s.db.emailLogs[id]
		if l.Status == models.EmailLogStatusPending && l.CreatedAt.Before(createdBefore) {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkSent records a successful delivery.
func (s *EmailLogs) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.emailLogs[id]
	if !ok {
		return apperr.NotFound("email log not found")
	}
	l.Status = models.EmailLogStatusSent
	l.Attempts++
	l.SentAt = &at
	l.ErrorMessage = ""
	return nil
}

// MarkFailed records a failed attempt; final moves the row out of pending.
func (s *EmailLogs) MarkFailed(_ context.Context, id uuid.UUID, msg string, final bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.emailLogs[id]
	if !ok {
		return apperr.NotFound("email log not found")
	}
	l.Attempts++
	l.ErrorMessage = msg
	if final {
		l.Status = models.EmailLogStatusFailed
	}
	return nil
}

// Requeue puts a failed row of eventID back to pending.
func (s *EmailLogs) Requeue(_ context.Context, eventID, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.emailLogs[id]
	if !ok || l.EventID == nil || *l.EventID != eventID || l.Status != models.EmailLogStatusFailed {
		return apperr.NotFound("no failed email log with that id for this event")
	}
	l.Status = models.EmailLogStatusPending
	return nil
}
