package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
)

// CreateInput holds the data for a new event.
type CreateInput struct {
	Name           string
	Description    string
	Date           *time.Time
	SignupDeadline *time.Time
	Location       string
	PeopleLimit    *int
	Fields         []models.Field
}

// Service is the event directory.
type Service struct {
	store      Store
	composer   *notify.Composer
	dispatcher *notify.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// NewService creates the event directory.
func NewService(store Store, composer *notify.Composer, dispatcher *notify.Dispatcher, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{store: store, composer: composer, dispatcher: dispatcher, clock: clk, logger: logger}
}

func normalizeLimit(limit *int) *int {
	if limit == nil || *limit < 1 {
		return nil
	}
	v := *limit
	return &v
}

// numberFields validates fields and assigns ids 1..n in list order.
func numberFields(fields []models.Field) ([]models.Field, error) {
	out := make([]models.Field, len(fields))
	for i, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		f.ID = i + 1
		if f.Options == nil {
			f.Options = []string{}
		}
		out[i] = f
	}
	return out, nil
}

func (s *Service) defaultDeadline(date *time.Time) time.Time {
	if date != nil {
		return *date
	}
	return s.clock.Now()
}

// Create persists a new event.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	fields, err := numberFields(in.Fields)
	if err != nil {
		return nil, err
	}
	deadline := s.defaultDeadline(in.Date)
	if in.SignupDeadline != nil {
		deadline = *in.SignupDeadline
	}
	if in.Date != nil && deadline.After(*in.Date) {
		return nil, apperr.Validation("signup deadline must not be after the event date")
	}

	now := s.clock.Now()
	ev := &models.Event{
		ID:             uuid.New(),
		Name:           name,
		Description:    in.Description,
		Date:           in.Date,
		SignupDeadline: deadline,
		Location:       in.Location,
		PeopleLimit:    normalizeLimit(in.PeopleLimit),
		Fields:         fields,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", zap.String("event_id", ev.ID.String()), zap.String("name", ev.Name))
	return ev, nil
}

// GetByID returns the event or NotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ev.Event, nil
}

// Details returns the event projected for userID.
func (s *Service) Details(ctx context.Context, id, userID uuid.UUID) (*models.EventDetails, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	signed, err := s.store.IsRegistered(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	return &models.EventDetails{
		EventSummary: ev.Summary(),
		Fields:       ev.Fields,
		UserSignedUp: signed,
	}, nil
}

// List returns all events filtered and ordered per opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.EventSummary, error) {
	evs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return arrange(evs, opts, s.clock.Now()), nil
}

// ListJoined is List restricted to events userID is registered for.
func (s *Service) ListJoined(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]models.EventSummary, error) {
	evs, err := s.store.ListJoined(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined events: %w", err)
	}
	return arrange(evs, opts, s.clock.Now()), nil
}

// Exists reports whether the event exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.Exists(ctx, id)
}

// Update applies patch. Replacing the field list invalidates existing answers,
// so it clears all registrations and notifies the registrants.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.EventPatch) (*models.Event, error) {
	return s.update(ctx, id, patch, patch.Fields != nil)
}

// UpdateAndReset applies patch and always clears registrations, notifying each registrant.
func (s *Service) UpdateAndReset(ctx context.Context, id uuid.UUID, patch models.EventPatch) (*models.Event, error) {
	return s.update(ctx, id, patch, true)
}

func (s *Service) update(ctx context.Context, id uuid.UUID, patch models.EventPatch, reset bool) (*models.Event, error) {
	var fields []models.Field
	if patch.Fields != nil {
		var err error
		if fields, err = numberFields(patch.Fields); err != nil {
			return nil, err
		}
		for i := range fields {
			fields[i].Required = false
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name is required")
	}

	now := s.clock.Now()
	var notice NoticeFunc
	if reset {
		notice = func(ev *models.Event, regs []models.Registrant) ([]models.EmailLog, error) {
			return s.composer.ComposeAll(models.NotifyEventModified, ev, regs, now)
		}
	}
	ev, logs, err := s.store.Update(ctx, id, reset, notice, func(ev *models.Event) error {
		applyPatch(ev, patch, fields)
		if ev.Date != nil && ev.SignupDeadline.After(*ev.Date) {
			return apperr.Validation("signup deadline must not be after the event date")
		}
		ev.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, logs)
	s.logger.Info("event updated", zap.String("event_id", id.String()), zap.Bool("reset", reset), zap.Int("notified", len(logs)))
	return ev, nil
}

func applyPatch(ev *models.Event, p models.EventPatch, fields []models.Field) {
	if p.Name != nil {
		ev.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Date != nil {
		d := *p.Date
		ev.Date = &d
	}
	if p.SignupDeadline != nil {
		ev.SignupDeadline = *p.SignupDeadline
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.PeopleLimit != nil {
		ev.PeopleLimit = normalizeLimit(p.PeopleLimit)
	}
	if fields != nil {
		ev.Fields = fields
	}
}

// Remove deletes the event with its registrations and notifies every registrant.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	now := s.clock.Now()
	logs, err := s.store.Delete(ctx, id, func(ev *models.Event, regs []models.Registrant) ([]models.EmailLog, error) {
		return s.composer.ComposeAll(models.NotifyEventCancelled, ev, regs, now)
	})
	if err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, logs)
	s.logger.Info("event removed", zap.String("event_id", id.String()), zap.Int("notified", len(logs)))
	return nil
}
