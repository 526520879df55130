package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/internal/store/memory"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
)

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	db    *memory.DB
	clock *clock.Fixed
	svc   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New()
	s.clock = &clock.Fixed{T: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	catalog, err := notify.LoadCatalog(notify.DefaultLocale, "Team")
	s.Require().NoError(err)
	s.svc = NewService(s.db.Events(), notify.NewComposer(catalog), notify.NewDispatcher(nil, nil, nil), s.clock, nil)
}

func (s *ServiceSuite) createEvent(in CreateInput) *models.Event {
	ev, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)
	return ev
}

// register seeds a user and a registration directly in the store.
func (s *ServiceSuite) register(ev *models.Event, email string) uuid.UUID {
	u := &models.User{ID: uuid.New(), Email: email}
	s.Require().NoError(s.db.Users().Create(s.ctx, u))
	_, err := s.db.Registrations().Create(s.ctx, ev.ID, u.ID, func(models.SignupState) (*models.Registration, []models.EmailLog, error) {
		return &models.Registration{EventID: ev.ID, UserID: u.ID, Date: s.clock.Now()}, nil, nil
	})
	s.Require().NoError(err)
	return u.ID
}

func (s *ServiceSuite) TestCreate() {
	s.Run("defaults deadline to the event date", func() {
		date := s.clock.Now().Add(48 * time.Hour)
		ev := s.createEvent(CreateInput{Name: " Go Meetup ", Date: &date, PeopleLimit: ptrInt(0)})
		s.Equal("Go Meetup", ev.Name)
		s.Equal(date, ev.SignupDeadline)
		s.Nil(ev.PeopleLimit)
		s.Equal(s.clock.Now(), ev.CreatedAt)
		s.Equal(s.clock.Now(), ev.UpdatedAt)
	})

	s.Run("defaults deadline to now without a date", func() {
		ev := s.createEvent(CreateInput{Name: "Undated"})
		s.Equal(s.clock.Now(), ev.SignupDeadline)
	})

	s.Run("numbers fields", func() {
		ev := s.createEvent(CreateInput{Name: "Form", Fields: []models.Field{
			{Kind: models.FieldText, Label: "Name", Required: true},
			{Kind: models.FieldSingleChoice, Label: "Meal", Options: []string{"veg", "meat"}},
		}})
		s.Require().Len(ev.Fields, 2)
		s.Equal(1, ev.Fields[0].ID)
		s.Equal(2, ev.Fields[1].ID)
		s.True(ev.Fields[0].Required)
	})

	s.Run("rejects blank name", func() {
		_, err := s.svc.Create(s.ctx, CreateInput{Name: "  "})
		s.ErrorIs(err, apperr.ErrValidation)
	})

	s.Run("rejects invalid field", func() {
		_, err := s.svc.Create(s.ctx, CreateInput{Name: "x", Fields: []models.Field{{Kind: models.FieldMultiChoice, Label: "Pick"}}})
		s.ErrorIs(err, apperr.ErrValidation)
	})

	s.Run("rejects deadline after date", func() {
		date := s.clock.Now().Add(time.Hour)
		deadline := date.Add(time.Minute)
		_, err := s.svc.Create(s.ctx, CreateInput{Name: "x", Date: &date, SignupDeadline: &deadline})
		s.ErrorIs(err, apperr.ErrValidation)
	})
}

func (s *ServiceSuite) TestGetAndDetails() {
	ev := s.createEvent(CreateInput{Name: "Talk", PeopleLimit: ptrInt(3), SignupDeadline: ptrTime(s.clock.Now().Add(time.Hour))})
	userID := s.register(ev, "ana@example.com")

	got, err := s.svc.GetByID(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Equal("Talk", got.Name)

	d, err := s.svc.Details(s.ctx, ev.ID, userID)
	s.Require().NoError(err)
	s.True(d.UserSignedUp)
	s.Equal(2, *d.SpotsLeft)

	d, err = s.svc.Details(s.ctx, ev.ID, uuid.New())
	s.Require().NoError(err)
	s.False(d.UserSignedUp)

	_, err = s.svc.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, apperr.ErrNotFound)

	ok, err := s.svc.Exists(s.ctx, ev.ID)
	s.NoError(err)
	s.True(ok)
	ok, err = s.svc.Exists(s.ctx, uuid.New())
	s.NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestListAndListJoined() {
	open := s.createEvent(CreateInput{Name: "Open", SignupDeadline: ptrTime(s.clock.Now().Add(time.Hour))})
	s.createEvent(CreateInput{Name: "Closed"})
	userID := s.register(open, "ana@example.com")

	all, err := s.svc.List(s.ctx, ListOptions{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("Open", all[0].Name)

	active, err := s.svc.List(s.ctx, ListOptions{ActiveOnly: true})
	s.Require().NoError(err)
	s.Len(active, 1)

	joined, err := s.svc.ListJoined(s.ctx, userID, ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(joined, 1)
	s.Equal(open.ID, joined[0].ID)

	none, err := s.svc.ListJoined(s.ctx, uuid.New(), ListOptions{})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ServiceSuite) TestUpdate_PlainFieldsKeepRegistrations() {
	ev := s.createEvent(CreateInput{Name: "Talk", SignupDeadline: ptrTime(s.clock.Now().Add(time.Hour))})
	s.register(ev, "ana@example.com")
	s.clock.Advance(time.Minute)

	name, limit := "Renamed", -3
	got, err := s.svc.Update(s.ctx, ev.ID, models.EventPatch{Name: &name, PeopleLimit: &limit})
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
	s.Nil(got.PeopleLimit)
	s.Equal(s.clock.Now(), got.UpdatedAt)
	s.Equal(ev.SignupDeadline, got.SignupDeadline)

	regs, err := s.db.Registrations().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Len(regs, 1)

	logs, err := s.db.EmailLogs().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(logs)
}

func (s *ServiceSuite) TestUpdate_NewFieldsClearRegistrationsAndNotify() {
	ev := s.createEvent(CreateInput{Name: "Talk", SignupDeadline: ptrTime(s.clock.Now().Add(time.Hour))})
	s.register(ev, "ana@example.com")
	s.register(ev, "boris@example.com")

	got, err := s.svc.Update(s.ctx, ev.ID, models.EventPatch{Fields: []models.Field{
		{Kind: models.FieldText, Label: "Company", Required: true},
	}})
	s.Require().NoError(err)
	s.Require().Len(got.Fields, 1)
	s.False(got.Fields[0].Required)
	s.Equal(1, got.Fields[0].ID)

	regs, err := s.db.Registrations().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(regs)

	logs, err := s.db.EmailLogs().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Require().Len(logs, 2)
	for _, l := range logs {
		s.Equal(models.NotifyEventModified, l.Kind)
		s.Equal(models.EmailLogStatusPending, l.Status)
	}
}

func (s *ServiceSuite) TestUpdateAndReset_AlwaysClears() {
	ev := s.createEvent(CreateInput{Name: "Talk", SignupDeadline: ptrTime(s.clock.Now().Add(time.Hour))})
	s.register(ev, "ana@example.com")

	loc := "Hall B"
	_, err := s.svc.UpdateAndReset(s.ctx, ev.ID, models.EventPatch{Location: &loc})
	s.Require().NoError(err)

	regs, err := s.db.Registrations().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(regs)
}

func (s *ServiceSuite) TestUpdate_Failures() {
	_, err := s.svc.Update(s.ctx, uuid.New(), models.EventPatch{})
	s.ErrorIs(err, apperr.ErrNotFound)

	date := s.clock.Now().Add(time.Hour)
	ev := s.createEvent(CreateInput{Name: "Talk", Date: &date})
	s.register(ev, "ana@example.com")

	later := date.Add(time.Hour)
	_, err = s.svc.UpdateAndReset(s.ctx, ev.ID, models.EventPatch{SignupDeadline: &later})
	s.ErrorIs(err, apperr.ErrValidation)

	// nothing committed on a rejected update
	regs, err := s.db.Registrations().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Len(regs, 1)
	logs, err := s.db.EmailLogs().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(logs)
}

func (s *ServiceSuite) TestRemove() {
	date := s.clock.Now().Add(24 * time.Hour)
	ev := s.createEvent(CreateInput{Name: "Talk", Date: &date})
	s.register(ev, "ana@example.com")
	s.register(ev, "")

	s.Require().NoError(s.svc.Remove(s.ctx, ev.ID))

	_, err := s.svc.GetByID(s.ctx, ev.ID)
	s.ErrorIs(err, apperr.ErrNotFound)

	regs, err := s.db.Registrations().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(regs)

	logs, err := s.db.EmailLogs().ListByEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("ana@example.com", logs[0].RecipientEmail)
	s.Equal(models.NotifyEventCancelled, logs[0].Kind)
	s.Equal("Event Cancelled: Talk", logs[0].Subject)

	s.ErrorIs(s.svc.Remove(s.ctx, ev.ID), apperr.ErrNotFound)
}
