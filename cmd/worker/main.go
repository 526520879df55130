// Package main runs the notification delivery worker and the outbox relay.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/backend/config"
	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/internal/worker"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/database"
	"github.com/eventdesk/backend/pkg/mailer"
	"github.com/eventdesk/backend/pkg/queue"
	"github.com/eventdesk/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		logger.Fatal("worker requires DB_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: cfg.Database.MaxConns}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clk := clock.System{}

	var sender mailer.Sender = mailer.NewLog(logger)
	if cfg.Email.SMTPHost != "" {
		sender, err = mailer.NewSMTP(mailer.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPass,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		}, logger)
		if err != nil {
			logger.Fatal("smtp", zap.Error(err))
		}
	} else {
		logger.Warn("SMTP_HOST not set, emails are logged instead of sent")
	}

	logs := emaillogs.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(logs, sender, jobQueue, clk, m, cfg.Notify.MaxAttempts, logger)
	relay := notify.NewRelay(logs, jobQueue, clk, notify.RelayConfig{
		Interval: cfg.Notify.RelayInterval,
		MinAge:   cfg.Notify.PendingAge,
		Batch:    cfg.Notify.RelayBatch,
	}, logger)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Worker.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return processor.Run(gctx) })
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	logger.Info("worker started", zap.String("metrics_port", cfg.Worker.MetricsPort))

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
