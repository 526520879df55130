// Package worker delivers queued notification emails.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/mailer"
	"github.com/eventdesk/backend/pkg/queue"
)

// JobQueue is the part of the Redis queue the worker loop consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// EmailProcessor sends outbox rows and records the outcome on each row.
type EmailProcessor struct {
	logs        emaillogs.Store
	sender      mailer.Sender
	queue       JobQueue
	clock       clock.Clock
	metrics     *metrics.Metrics
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewEmailProcessor creates an email processor. A row is marked failed after maxAttempts sends.
func NewEmailProcessor(logs emaillogs.Store, sender mailer.Sender, q JobQueue, clk clock.Clock, m *metrics.Metrics, maxAttempts int, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if maxAttempts < 1 {
		maxAttempts = queue.MaxRetries
	}
	return &EmailProcessor{
		logs:        logs,
		sender:      sender,
		queue:       q,
		clock:       clk,
		metrics:     m,
		maxAttempts: maxAttempts,
		backoff:     queue.RetryBackoff,
		logger:      logger,
	}
}

// Deliver sends one outbox row. Rows no longer pending are skipped. A send error is
// returned while attempts remain; the last failed attempt marks the row failed and returns nil.
func (p *EmailProcessor) Deliver(ctx context.Context, id uuid.UUID) error {
	l, err := p.logs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load email log %s: %w", id, err)
	}
	if l.Status != models.EmailLogStatusPending {
		p.logger.Debug("email log not pending, skipping", zap.String("email_log_id", id.String()), zap.String("status", l.Status))
		return nil
	}

	sendErr := p.sender.Send(ctx, l.RecipientEmail, l.Subject, l.BodyHTML)
	if sendErr == nil {
		if err := p.logs.MarkSent(ctx, id, p.clock.Now()); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		p.metrics.Notification(string(l.Kind), "sent")
		p.logger.Info("email sent", zap.String("email_log_id", id.String()), zap.String("kind", string(l.Kind)))
		return nil
	}

	final := l.Attempts+1 >= p.maxAttempts
	if err := p.logs.MarkFailed(ctx, id, sendErr.Error(), final); err != nil {
		return errors.Join(sendErr, fmt.Errorf("mark failed: %w", err))
	}
	if final {
		p.metrics.Notification(string(l.Kind), "failed")
		p.logger.Error("email delivery gave up",
			zap.String("email_log_id", id.String()), zap.Int("attempts", l.Attempts+1), zap.Error(sendErr))
		return nil
	}
	return fmt.Errorf("send email %s: %w", id, sendErr)
}

// Process executes one queued job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.EmailPayload()
	if err != nil {
		return err
	}
	return p.Deliver(ctx, payload.EmailLogID)
}

// Run consumes the queue until ctx is cancelled, retrying failed jobs with backoff.
func (p *EmailProcessor) Run(ctx context.Context) error {
	p.logger.Info("email worker started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("email worker stopping")
			return nil
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("job failed", zap.String("job_id", job.ID), zap.Error(err))
			dead, reErr := p.queue.Retry(ctx, job)
			if reErr != nil {
				p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
			} else if dead {
				p.logger.Error("job moved to dead letter queue", zap.String("job_id", job.ID))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
