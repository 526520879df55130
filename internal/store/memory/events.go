package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

// Events implements the event directory store.
type Events struct {
	db *DB
}

func errEventNotFound() error { return apperr.NotFound("event not found") }

// Create inserts ev.
func (s *Events) Create(_ context.Context, ev *models.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[ev.ID]; ok {
		return apperr.Conflict("event already exists")
	}
	c := copyEvent(ev)
	s.db.events[ev.ID] = &c
	return nil
}

// Get returns the event with its registrant count.
func (s *Events) Get(_ context.Context, id uuid.UUID) (*models.EventWithCount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ev, ok := s.db.events[id]
	if !ok {
		return nil, errEventNotFound()
	}
	return &models.EventWithCount{Event: copyEvent(ev), Registered: s.db.countRegs(id)}, nil
}

func (s *Events) collect(keep func(id uuid.UUID) bool) []models.EventWithCount {
	out := make([]models.EventWithCount, 0, len(s.db.events))
	for id, ev := range s.db.events {
		if keep(id) {
			out = append(out, models.EventWithCount{Event: copyEvent(ev), Registered: s.db.countRegs(id)})
		}
	}
	// map order is random; listings start from creation order
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// List returns every event.
func (s *Events) List(_ context.Context) ([]models.EventWithCount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.collect(func(uuid.UUID) bool { return true }), nil
}

// ListJoined returns the events userID is registered for.
func (s *Events) ListJoined(_ context.Context, userID uuid.UUID) ([]models.EventWithCount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.collect(func(id uuid.UUID) bool {
		_, ok := s.db.regs[regKey{id, userID}]
		return ok
	}), nil
}

// Exists reports whether the event exists.
func (s *Events) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.events[id]
	return ok, nil
}

// IsRegistered reports whether userID holds a registration for eventID.
func (s *Events) IsRegistered(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.regs[regKey{eventID, userID}]
	return ok, nil
}

// Update runs notice and apply on a working copy and commits only if both succeed.
func (s *Events) Update(_ context.Context, id uuid.UUID, reset bool,
	notice func(*models.Event, []models.Registrant) ([]models.EmailLog, error),
	apply func(*models.Event) error) (*models.Event, []models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.events[id]
	if !ok {
		return nil, nil, errEventNotFound()
	}
	work := copyEvent(cur)

	var logs []models.EmailLog
	if notice != nil {
		var err error
		if logs, err = notice(&work, s.db.registrants(id)); err != nil {
			return nil, nil, err
		}
	}
	if err := apply(&work); err != nil {
		return nil, nil, err
	}

	if reset {
		for k := range s.db.regs {
			if k.eventID == id {
				delete(s.db.regs, k)
			}
		}
	}
	s.db.insertLogs(logs)
	s.db.events[id] = &work
	out := copyEvent(&work)
	return &out, logs, nil
}

// Delete removes the event and its registrations.
func (s *Events) Delete(_ context.Context, id uuid.UUID,
	notice func(*models.Event, []models.Registrant) ([]models.EmailLog, error)) ([]models.EmailLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ev, ok := s.db.events[id]
	if !ok {
		return nil, errEventNotFound()
	}
	var logs []models.EmailLog
	if notice != nil {
		snapshot := copyEvent(ev)
		var err error
		if logs, err = notice(&snapshot, s.db.registrants(id)); err != nil {
			return nil, err
		}
	}
	for k := range s.db.regs {
		if k.eventID == id {
			delete(s.db.regs, k)
		}
	}
	delete(s.db.events, id)
	s.db.insertLogs(logs)
	return logs, nil
}
