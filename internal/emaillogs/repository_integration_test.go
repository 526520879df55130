//go:build integration

package emaillogs_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/database"
	"github.com/eventdesk/backend/pkg/testutil/containers"
)

var _ emaillogs.Store = (*emaillogs.Repository)(nil)

type RepositorySuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	ctx     context.Context
	repo    *emaillogs.Repository
	eventID uuid.UUID
	base    time.Time
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.pg = containers.Postgres(s.T())
	s.ctx = context.Background()
	s.repo = emaillogs.NewRepository(s.pg.Pool)
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Reset(s.ctx))
	s.eventID = uuid.New()
	s.base = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) insert(n int) []models.EmailLog {
	logs := make([]models.EmailLog, n)
	for i := range logs {
		eventID := s.eventID
		logs[i] = models.EmailLog{
			ID:             uuid.New(),
			EventID:        &eventID,
			Kind:           models.NotifyEventCancelled,
			RecipientEmail: "ann@example.com",
			Subject:        "Cancelled",
			BodyHTML:       "<p>Cancelled</p>",
			Status:         models.EmailLogStatusPending,
			CreatedAt:      s.base.Add(time.Duration(i) * time.Minute),
		}
	}
	s.Require().NoError(database.WithTx(s.ctx, s.pg.Pool, func(tx pgx.Tx) error {
		return emaillogs.InsertTx(s.ctx, tx, logs)
	}))
	return logs
}

func (s *RepositorySuite) TestInsertTxRollsBackWithTransaction() {
	eventID := s.eventID
	row := models.EmailLog{ID: uuid.New(), EventID: &eventID, Kind: models.NotifyEventCancelled,
		RecipientEmail: "ann@example.com", Status: models.EmailLogStatusPending, CreatedAt: s.base}
	err := database.WithTx(s.ctx, s.pg.Pool, func(tx pgx.Tx) error {
		if err := emaillogs.InsertTx(s.ctx, tx, []models.EmailLog{row}); err != nil {
			return err
		}
		return apperr.Validation("abort")
	})
	s.Require().ErrorIs(err, apperr.ErrValidation)

	_, err = s.repo.Get(s.ctx, row.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *RepositorySuite) TestListByEventNewestFirst() {
	logs := s.insert(3)

	got, err := s.repo.ListByEvent(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(logs[2].ID, got[0].ID)
	s.Equal(logs[0].ID, got[2].ID)
	s.Equal("<p>Cancelled</p>", got[0].BodyHTML)

	none, err := s.repo.ListByEvent(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *RepositorySuite) TestListPendingHonorsCutoffAndLimit() {
	logs := s.insert(3)

	got, err := s.repo.ListPending(s.ctx, s.base.Add(90*time.Second), 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(logs[0].ID, got[0].ID)

	got, err = s.repo.ListPending(s.ctx, s.base.Add(time.Hour), 1)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *RepositorySuite) TestDeliveryLifecycle() {
	logs := s.insert(2)
	sent, failed := logs[0].ID, logs[1].ID

	at := s.base.Add(time.Hour)
	s.Require().NoError(s.repo.MarkSent(s.ctx, sent, at))
	s.Require().NoError(s.repo.MarkFailed(s.ctx, failed, "smtp down", false))

	got, err := s.repo.Get(s.ctx, sent)
	s.Require().NoError(err)
	s.Equal(models.EmailLogStatusSent, got.Status)
	s.Equal(1, got.Attempts)
	s.Require().NotNil(got.SentAt)
	s.True(got.SentAt.Equal(at))

	got, err = s.repo.Get(s.ctx, failed)
	s.Require().NoError(err)
	s.Equal(models.EmailLogStatusPending, got.Status)
	s.Equal("smtp down", got.ErrorMessage)

	s.ErrorIs(s.repo.Requeue(s.ctx, s.eventID, failed), apperr.ErrNotFound)

	s.Require().NoError(s.repo.MarkFailed(s.ctx, failed, "smtp down", true))
	got, err = s.repo.Get(s.ctx, failed)
	s.Require().NoError(err)
	s.Equal(models.EmailLogStatusFailed, got.Status)
	s.Equal(2, got.Attempts)

	s.ErrorIs(s.repo.Requeue(s.ctx, uuid.New(), failed), apperr.ErrNotFound)
	s.Require().NoError(s.repo.Requeue(s.ctx, s.eventID, failed))
	got, err = s.repo.Get(s.ctx, failed)
	s.Require().NoError(err)
	s.Equal(models.EmailLogStatusPending, got.Status)

	s.ErrorIs(s.repo.MarkSent(s.ctx, uuid.New(), at), apperr.ErrNotFound)
}
