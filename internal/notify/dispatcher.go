package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
)

// Enqueuer hands an outbox row id to the delivery worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, emailLogID uuid.UUID) error
}

// Dispatcher enqueues committed outbox rows for delivery.
type Dispatcher struct {
	q       Enqueuer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil Enqueuer leaves rows to the relay.
func NewDispatcher(q Enqueuer, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{q: q, metrics: m, logger: logger}
}

// Dispatch enqueues each committed row. Enqueue failures are logged only;
// the rows stay pending and the relay picks them up.
func (d *Dispatcher) Dispatch(ctx context.Context, logs []models.EmailLog) {
	if d == nil || d.q == nil {
		return
	}
	for _, l := range logs {
		if err := d.q.EnqueueEmail(ctx, l.ID); err != nil {
			d.logger.Warn("enqueue notification failed, leaving for relay",
				zap.String("email_log_id", l.ID.String()), zap.String("kind", string(l.Kind)), zap.Error(err))
			continue
		}
		d.metrics.Notification(string(l.Kind), "queued")
	}
}
