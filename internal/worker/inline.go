package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const inlineTimeout = 30 * time.Second

// Inline delivers emails in background goroutines of the API process. It stands
// in for the Redis queue when none is configured; rows that fail stay pending for the relay.
type Inline struct {
	p      *EmailProcessor
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewInline wraps p as an enqueuer.
func NewInline(p *EmailProcessor, logger *zap.Logger) *Inline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inline{p: p, logger: logger}
}

// EnqueueEmail starts delivery of the row detached from the request context.
func (in *Inline) EnqueueEmail(ctx context.Context, emailLogID uuid.UUID) error {
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineTimeout)
		defer cancel()
		if err := in.p.Deliver(ctx, emailLogID); err != nil {
			in.logger.Warn("inline delivery failed", zap.String("email_log_id", emailLogID.String()), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish.
func (in *Inline) Wait() {
	in.wg.Wait()
}
