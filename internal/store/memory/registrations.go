package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

// Registrations implements the registration ledger store.
type Registrations struct {
	db *DB
}

func errRegistrationNotFound() error { return apperr.NotFound("registration not found") }

func (s *Registrations) emailOf(userID uuid.UUID) string {
	if u, ok := s.db.users[userID]; ok {
		return u.Email
	}
	return ""
}

// ListByEvent returns summaries ordered by registration date.
func (s *Registrations) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.RegistrationSummary, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.RegistrationSummary{}
	for k, r := range s.db.regs {
		if k.eventID != eventID {
			continue
		}
		out = append(out, models.RegistrationSummary{
			UserID:  r.UserID,
			Email:   s.emailOf(r.UserID),
			Date:    r.Date,
			Answers: copyAnswers(r.Answers),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Registrations) detail(eventID, userID uuid.UUID) (*models.RegistrationDetail, error) {
	r, ok := s.db.regs[regKey{eventID, userID}]
	if !ok {
		return nil, errRegistrationNotFound()
	}
	ev, ok := s.db.events[eventID]
	if !ok {
		return nil, errEventNotFound()
	}
	return &models.RegistrationDetail{
		Registration: copyRegistration(r),
		Event:        copyEvent(ev),
		Email:        s.emailOf(userID),
	}, nil
}

// Get returns one registration with its event and email.
func (s *Registrations) Get(_ context.Context, eventID, userID uuid.UUID) (*models.RegistrationDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.detail(eventID, userID)
}

// Create decides and inserts under the store lock.
func (s *Registrations) Create(_ context.Context, eventID, userID uuid.UUID,
	decide func(models.SignupState) (*models.Registration, []models.EmailLog, error)) ([]models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ev, ok := s.db.events[eventID]
	if !ok {
		return nil, errEventNotFound()
	}
	snapshot := copyEvent(ev)
	key := regKey{eventID, userID}
	_, exists := s.db.regs[key]
	reg, logs, err := decide(models.SignupState{
		Event:      &snapshot,
		Registered: s.db.countRegs(eventID),
		Exists:     exists,
		Email:      s.emailOf(userID),
	})
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("already registered for this event")
	}
	c := copyRegistration(reg)
	s.db.regs[key] = &c
	s.db.insertLogs(logs)
	return logs, nil
}

// UpdateAnswers applies the change to a copy and saves it when apply succeeds.
func (s *Registrations) UpdateAnswers(_ context.Context, eventID, userID uuid.UUID, apply func(*models.RegistrationDetail) error) (*models.Registration, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, err := s.detail(eventID, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(d); err != nil {
		return nil, err
	}
	saved := copyRegistration(&d.Registration)
	s.db.regs[regKey{eventID, userID}] = &saved
	out := copyRegistration(&saved)
	return &out, nil
}

// Delete removes a registration once check approves it.
func (s *Registrations) Delete(_ context.Context, eventID, userID uuid.UUID,
	check func(*models.RegistrationDetail) ([]models.EmailLog, error)) ([]models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, err := s.detail(eventID, userID)
	if err != nil {
		return nil, err
	}
	logs, err := check(d)
	if err != nil {
		return nil, err
	}
	delete(s.db.regs, regKey{eventID, userID})
	s.db.insertLogs(logs)
	return logs, nil
}
