package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/clock"
)

// PendingLister finds outbox rows still waiting for delivery.
type PendingLister interface {
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.EmailLog, error)
}

// RelayConfig tunes the relay loop.
type RelayConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	Batch    int
}

// Relay re-enqueues pending outbox rows whose first enqueue was lost.
type Relay struct {
	store  PendingLister
	q      Enqueuer
	clock  clock.Clock
	cfg    RelayConfig
	logger *zap.Logger
}

// NewRelay creates an outbox relay.
func NewRelay(store PendingLister, q Enqueuer, clk clock.Clock, cfg RelayConfig, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	return &Relay{store: store, q: q, clock: clk, cfg: cfg, logger: logger}
}

// Sweep enqueues one batch of stale pending rows and returns how many were enqueued.
func (r *Relay) Sweep(ctx context.Context) (int, error) {
	pending, err := r.store.ListPending(ctx, r.clock.Now().Add(-r.cfg.MinAge), r.cfg.Batch)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range pending {
		if err := r.q.EnqueueEmail(ctx, l.ID); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		r.logger.Info("relayed pending notifications", zap.Int("count", n))
	}
	return n, nil
}

// Run sweeps every interval until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("outbox relay sweep failed", zap.Error(err))
			}
		}
	}
}
