package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/clock"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueEmail(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPending struct {
	mock.Mock
}

func (m *mockPending) ListPending(ctx context.Context, before time.Time, limit int) ([]models.EmailLog, error) {
	args := m.Called(ctx, before, limit)
	logs, _ := args.Get(0).([]models.EmailLog)
	return logs, args.Error(1)
}

func TestDispatcher_EnqueuesEachRow(t *testing.T) {
	ctx := context.Background()
	a, b := models.EmailLog{ID: uuid.New()}, models.EmailLog{ID: uuid.New()}

	q := new(mockEnqueuer)
	q.On("EnqueueEmail", ctx, a.ID).Return(errors.New("redis down"))
	q.On("EnqueueEmail", ctx, b.ID).Return(nil)

	NewDispatcher(q, nil, nil).Dispatch(ctx, []models.EmailLog{a, b})
	q.AssertExpectations(t)
}

func TestDispatcher_NilEnqueuerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewDispatcher(nil, nil, nil).Dispatch(context.Background(), []models.EmailLog{{ID: uuid.New()}})
	})
}

func TestRelay_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.EmailLog{{ID: uuid.New()}, {ID: uuid.New()}}

	store := new(mockPending)
	store.On("ListPending", ctx, now.Add(-2*time.Minute), 50).Return(rows, nil)
	q := new(mockEnqueuer)
	q.On("EnqueueEmail", ctx, mock.Anything).Return(nil)

	r := NewRelay(store, q, &clock.Fixed{T: now}, RelayConfig{MinAge: 2 * time.Minute, Batch: 50}, nil)
	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	q.AssertNumberOfCalls(t, "EnqueueEmail", 2)
}

func TestRelay_SweepStopsOnEnqueueError(t *testing.T) {
	ctx := context.Background()
	rows := []models.EmailLog{{ID: uuid.New()}, {ID: uuid.New()}}

	store := new(mockPending)
	store.On("ListPending", ctx, mock.Anything, 100).Return(rows, nil)
	q := new(mockEnqueuer)
	q.On("EnqueueEmail", ctx, rows[0].ID).Return(errors.New("boom"))

	n, err := NewRelay(store, q, clock.System{}, RelayConfig{}, nil).Sweep(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := new(mockPending)
	store.On("ListPending", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	r := NewRelay(store, new(mockEnqueuer), clock.System{}, RelayConfig{Interval: 5 * time.Millisecond}, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
