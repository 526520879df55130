package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/registrations"
	"github.com/eventdesk/backend/internal/store/memory"
	"github.com/eventdesk/backend/pkg/apperr"
)

var (
	_ events.Store        = (*memory.Events)(nil)
	_ registrations.Store = (*memory.Registrations)(nil)
	_ auth.Store          = (*memory.Users)(nil)
	_ emaillogs.Store     = (*memory.EmailLogs)(nil)
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, db *memory.DB, emails ...string) (*models.Event, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	ev := &models.Event{
		ID:             uuid.New(),
		Name:           "Workshop",
		SignupDeadline: now.Add(time.Hour),
		Fields:         []models.Field{{ID: 1, Kind: models.FieldSingleChoice, Label: "Meal", Options: []string{"Veg"}}},
	}
	require.NoError(t, db.Events().Create(ctx, ev))
	ids := make([]uuid.UUID, len(emails))
	for i, email := range emails {
		u := &models.User{ID: uuid.New(), Email: email, Roles: []models.Role{models.RoleUser}}
		require.NoError(t, db.Users().Create(ctx, u))
		ids[i] = u.ID
		_, err := db.Registrations().Create(ctx, ev.ID, u.ID, func(st models.SignupState) (*models.Registration, []models.EmailLog, error) {
			return &models.Registration{EventID: ev.ID, UserID: u.ID, Date: now, Answers: []models.Answer{}}, nil, nil
		})
		require.NoError(t, err)
	}
	return ev, ids
}

func notice(kind models.NotificationKind) events.NoticeFunc {
	return func(ev *models.Event, regs []models.Registrant) ([]models.EmailLog, error) {
		out := make([]models.EmailLog, len(regs))
		for i, r := range regs {
			id := ev.ID
			out[i] = models.EmailLog{ID: uuid.New(), EventID: &id, Kind: kind, RecipientEmail: r.Email,
				Status: models.EmailLogStatusPending, CreatedAt: now}
		}
		return out, nil
	}
}

func TestEvents_ReturnedCopiesAreIsolated(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ev, _ := seed(t, db)

	got, err := db.Events().Get(ctx, ev.ID)
	require.NoError(t, err)
	got.Fields[0].Options[0] = "Meat"
	got.Name = "Changed"

	again, err := db.Events().Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Workshop", again.Name)
	assert.Equal(t, []string{"Veg"}, again.Fields[0].Options)
}

func TestEvents_UpdateRollsBackOnApplyError(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ev, _ := seed(t, db, "ann@example.com")

	_, _, err := db.Events().Update(ctx, ev.ID, true, notice(models.NotifyEventModified), func(e *models.Event) error {
		e.Name = "Changed"
		return apperr.Validation("nope")
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := db.Events().Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Workshop", got.Name)
	assert.Equal(t, 1, got.Registered)
	logs, err := db.EmailLogs().ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestEvents_UpdateResetClearsRegistrations(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ev, _ := seed(t, db, "bob@example.com", "ann@example.com")

	_, logs, err := db.Events().Update(ctx, ev.ID, true, notice(models.NotifyEventModified), func(*models.Event) error { return nil })
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "ann@example.com", logs[0].RecipientEmail)

	got, err := db.Events().Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Registered)
}

func TestEvents_DeleteCascades(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ev, ids := seed(t, db, "ann@example.com")

	logs, err := db.Events().Delete(ctx, ev.ID, notice(models.NotifyEventCancelled))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = db.Registrations().Get(ctx, ev.ID, ids[0])
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	joined, err := db.Events().ListJoined(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, joined)

	stored, err := db.EmailLogs().ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRegistrations_CreateUnknownEvent(t *testing.T) {
	db := memory.New()
	_, err := db.Registrations().Create(context.Background(), uuid.New(), uuid.New(),
		func(models.SignupState) (*models.Registration, []models.EmailLog, error) {
			t.Fatal("decide must not run for an unknown event")
			return nil, nil, nil
		})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEmailLogs_Lifecycle(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	ev, _ := seed(t, db, "ann@example.com")
	logs, err := db.Events().Delete(ctx, ev.ID, notice(models.NotifyEventCancelled))
	require.NoError(t, err)
	id := logs[0].ID

	pending, err := db.EmailLogs().ListPending(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, db.EmailLogs().MarkFailed(ctx, id, "smtp down", true))
	require.NoError(t, db.EmailLogs().Requeue(ctx, ev.ID, id))
	assert.ErrorIs(t, db.EmailLogs().Requeue(ctx, ev.ID, id), apperr.ErrNotFound)

	require.NoError(t, db.EmailLogs().MarkSent(ctx, id, now))
	got, err := db.EmailLogs().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EmailLogStatusSent, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Empty(t, got.ErrorMessage)
}
