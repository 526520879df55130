// Package main runs the event signup HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/backend/config"
	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/export"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/internal/registrations"
	"github.com/eventdesk/backend/internal/store/memory"
	"github.com/eventdesk/backend/internal/worker"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/database"
	"github.com/eventdesk/backend/pkg/mailer"
	"github.com/eventdesk/backend/pkg/queue"
	"github.com/eventdesk/backend/pkg/redis"
	"github.com/eventdesk/backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// stores are the persistence ports, backed by Postgres or by the in-memory store.
type stores struct {
	events        events.Store
	registrations registrations.Store
	users         auth.Store
	emails        emaillogs.Store
}

func postgresStores(pool *pgxpool.Pool) stores {
	return stores{
		events:        events.NewRepository(pool),
		registrations: registrations.NewRepository(pool),
		users:         auth.NewRepository(pool),
		emails:        emaillogs.NewRepository(pool),
	}
}

func memoryStores() stores {
	db := memory.New()
	return stores{
		events:        db.Events(),
		registrations: db.Registrations(),
		users:         db.Users(),
		emails:        db.EmailLogs(),
	}
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st stores
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		st = memoryStores()
	} else {
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: cfg.Database.MaxConns}, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		st = postgresStores(pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	clk := clock.System{}

	sender := newSender(cfg.Email, logger)
	processor := worker.NewEmailProcessor(st.emails, sender, nil, clk, m, cfg.Notify.MaxAttempts, logger)

	// Redis carries delivery to cmd/worker. Without it, mail goes out from this process
	// and the relay runs here too.
	var enqueuer notify.Enqueuer
	var inline *worker.Inline
	if cfg.Database.Driver != "memory" {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Warn("redis unavailable, delivering email in-process", zap.Error(err))
		} else {
			defer rdb.Close()
			enqueuer = queue.NewQueue(rdb.Client, logger)
		}
	}
	if enqueuer == nil {
		inline = worker.NewInline(processor, logger)
		enqueuer = inline
	}

	var archiver export.Archiver
	if cfg.AWS.S3Enabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			archiver = s3Client
		}
	}

	catalog, err := notify.LoadCatalog(notify.DefaultLocale, cfg.Email.FromName)
	if err != nil {
		logger.Fatal("notification catalog", zap.Error(err))
	}
	composer := notify.NewComposer(catalog)
	dispatcher := notify.NewDispatcher(enqueuer, m, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authSvc := auth.NewService(st.users, jwtService, clk, cfg.Admin.Email, logger)
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Password); err != nil {
		logger.Fatal("bootstrap administrator", zap.Error(err))
	}
	eventSvc := events.NewService(st.events, composer, dispatcher, clk, logger)
	regSvc := registrations.NewService(st.registrations, composer, dispatcher, clk, m, logger)
	exportSvc := export.NewService(eventSvc, regSvc, archiver, clk, logger)

	router := newRouter(routerDeps{
		handlers: handlers{
			auth:          auth.NewHandler(authSvc, logger),
			events:        events.NewHandler(eventSvc, logger),
			registrations: registrations.NewHandler(regSvc, logger),
			export:        export.NewHandler(exportSvc, logger),
			emails:        emaillogs.NewHandler(st.emails, enqueuer, logger),
		},
		jwt:      jwtService,
		metrics:  m,
		gatherer: reg,
		origins:  cfg.Server.Origins(),
		logger:   logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if inline != nil {
		relay := notify.NewRelay(st.emails, inline, clk, notify.RelayConfig{
			Interval: cfg.Notify.RelayInterval,
			MinAge:   cfg.Notify.PendingAge,
			Batch:    cfg.Notify.RelayBatch,
		}, logger)
		g.Go(func() error { return relay.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
	if inline != nil {
		inline.Wait()
	}
	logger.Info("server stopped")
}

func newSender(cfg config.EmailConfig, logger *zap.Logger) mailer.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, emails are logged instead of sent")
		return mailer.NewLog(logger)
	}
	s, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
	}, logger)
	if err != nil {
		logger.Fatal("smtp", zap.Error(err))
	}
	return s
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
