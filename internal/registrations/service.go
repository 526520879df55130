package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
)

// Messages returned for business-rule rejections.
const (
	MsgAlreadyRegistered = "already registered for this event"
	MsgNoFreeSpots       = "no free spots"
	MsgDeadlinePassed    = "deadline passed"
)

// Service is the registration ledger.
type Service struct {
	store      Store
	composer   *notify.Composer
	dispatcher *notify.Dispatcher
	clock      clock.Clock
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService creates the registration ledger.
func NewService(store Store, composer *notify.Composer, dispatcher *notify.Dispatcher, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{store: store, composer: composer, dispatcher: dispatcher, clock: clk, metrics: m, logger: logger}
}

// ListByEvent returns every registration of an event; empty when there are none.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationSummary, error) {
	list, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if list == nil {
		list = []models.RegistrationSummary{}
	}
	return list, nil
}

// Get returns the registration of userID for eventID, or NotFound.
func (s *Service) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	d, err := s.store.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	return &d.Registration, nil
}

// Create registers userID for eventID. Checks run in a fixed order:
// duplicate (Conflict), capacity, deadline, then answer validation.
func (s *Service) Create(ctx context.Context, eventID, userID uuid.UUID, answers []models.Answer) (*models.Registration, error) {
	now := s.clock.Now()
	var created *models.Registration
	logs, err := s.store.Create(ctx, eventID, userID, func(st models.SignupState) (*models.Registration, []models.EmailLog, error) {
		if st.Exists {
			s.metrics.RegistrationRejected(metrics.ReasonConflict)
			return nil, nil, apperr.Conflict(MsgAlreadyRegistered)
		}
		if st.Event.IsFull(st.Registered) {
			s.metrics.RegistrationRejected(metrics.ReasonFull)
			return nil, nil, apperr.Validation(MsgNoFreeSpots)
		}
		if st.Event.DeadlinePassed(now) {
			s.metrics.RegistrationRejected(metrics.ReasonDeadline)
			return nil, nil, apperr.Validation(MsgDeadlinePassed)
		}
		normalized, err := validateAnswers(st.Event, answers)
		if err != nil {
			s.metrics.RegistrationRejected(metrics.ReasonInvalid)
			return nil, nil, err
		}
		created = &models.Registration{
			EventID:   eventID,
			UserID:    userID,
			Date:      now,
			Answers:   normalized,
			CreatedAt: now,
			UpdatedAt: now,
		}
		var notices []models.EmailLog
		if st.Email != "" {
			n, err := s.composer.Compose(models.NotifyRegistrationConfirmed, st.Event, models.Registrant{UserID: userID, Email: st.Email}, now)
			if err != nil {
				return nil, nil, err
			}
			notices = append(notices, n)
		}
		return created, notices, nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) && created != nil {
			// lost a race on the primary key after passing the checks
			s.metrics.RegistrationRejected(metrics.ReasonConflict)
		}
		return nil, err
	}
	s.metrics.RegistrationCreated()
	s.dispatcher.Dispatch(ctx, logs)
	s.logger.Info("registration created", zap.String("event_id", eventID.String()), zap.String("user_id", userID.String()))
	return created, nil
}

// UpdateAnswers replaces the answers of an existing registration while signups are open.
func (s *Service) UpdateAnswers(ctx context.Context, eventID, userID uuid.UUID, answers []models.Answer) (*models.Registration, error) {
	now := s.clock.Now()
	reg, err := s.store.UpdateAnswers(ctx, eventID, userID, func(d *models.RegistrationDetail) error {
		if d.Event.DeadlinePassed(now) {
			return apperr.Validation(MsgDeadlinePassed)
		}
		normalized, err := validateAnswers(&d.Event, answers)
		if err != nil {
			return err
		}
		d.Answers = normalized
		d.Date = now
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// RemoveSelf withdraws userID from eventID; blocked once the signup deadline has passed.
func (s *Service) RemoveSelf(ctx context.Context, eventID, userID uuid.UUID) error {
	now := s.clock.Now()
	return s.remove(ctx, eventID, userID, models.NotifyRegistrationWithdrawn, func(d *models.RegistrationDetail) error {
		if d.Event.DeadlinePassed(now) {
			return apperr.Validation(MsgDeadlinePassed)
		}
		return nil
	})
}

// AdminRemove removes userID from eventID regardless of the deadline.
func (s *Service) AdminRemove(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.remove(ctx, eventID, userID, models.NotifyRegistrationRemoved, nil)
}

func (s *Service) remove(ctx context.Context, eventID, userID uuid.UUID, kind models.NotificationKind, gate func(d *models.RegistrationDetail) error) error {
	now := s.clock.Now()
	logs, err := s.store.Delete(ctx, eventID, userID, func(d *models.RegistrationDetail) ([]models.EmailLog, error) {
		if gate != nil {
			if err := gate(d); err != nil {
				return nil, err
			}
		}
		if d.Email == "" {
			return nil, nil
		}
		n, err := s.composer.Compose(kind, &d.Event, models.Registrant{UserID: userID, Email: d.Email}, now)
		if err != nil {
			return nil, err
		}
		return []models.EmailLog{n}, nil
	})
	if err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, logs)
	s.logger.Info("registration removed", zap.String("event_id", eventID.String()), zap.String("user_id", userID.String()), zap.String("kind", string(kind)))
	return nil
}
