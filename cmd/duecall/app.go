package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/infra/attemptrecorder"
	"github.com/phrazzld/duecall/internal/infra/ledger"
	"github.com/phrazzld/duecall/internal/observability/metrics"
	"github.com/phrazzld/duecall/internal/platform/postgres"
	"github.com/phrazzld/duecall/internal/platform/sqlite"
	"github.com/phrazzld/duecall/internal/platform/twilio"
	"github.com/phrazzld/duecall/internal/reminder"
	"github.com/phrazzld/duecall/internal/store"
)

// application holds the wired dependencies of one process and releases them
// in cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  func() time.Time

	db            *sql.DB
	redisClient   *redis.Client
	meterProvider *sdkmetric.MeterProvider
	recorder      attemptrecorder.Recorder

	taskStore  store.TaskStore
	userStore  store.UserStore
	dispatcher *reminder.Dispatcher
}

type appOptions struct {
	gateway    reminder.Gateway
	initSchema bool
	clock      func() time.Time
}

type appOption func(*appOptions)

// withGateway replaces the configured telephony gateway.
func withGateway(g reminder.Gateway) appOption {
	return func(o *appOptions) { o.gateway = g }
}

// withSchemaInit applies the postgres schema at startup.
func withSchemaInit(enabled bool) appOption {
	return func(o *appOptions) { o.initSchema = enabled }
}

func withClock(now func() time.Time) appOption {
	return func(o *appOptions) { o.clock = now }
}

// newApplication wires every component from cfg. Any failure is fatal for
// the caller and already-opened resources are released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...appOption) (_ *application, err error) {
	o := appOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	app := &application{
		config: cfg,
		logger: logger,
		clock:  o.clock,
	}
	defer func() {
		if err != nil {
			app.cleanup(context.Background())
		}
	}()

	app.db, err = setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	classifier := domain.NewUrgencyClassifier(cfg.Reminder.Location())
	switch cfg.Database.Driver {
	case "sqlite":
		app.taskStore = sqlite.NewTaskStore(app.db, logger, classifier)
		app.userStore = sqlite.NewUserStore(app.db, logger)
	default:
		if o.initSchema {
			if err = postgres.EnsureSchema(ctx, app.db); err != nil {
				return nil, fmt.Errorf("failed to apply schema: %w", err)
			}
			logger.Info("database schema applied")
		}
		app.taskStore = postgres.NewPostgresTaskStore(app.db, logger, classifier)
		app.userStore = postgres.NewPostgresUserStore(app.db, logger)
	}

	app.meterProvider, err = metrics.NewMeterProvider(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}
	reminderMetrics, err := metrics.NewReminderMetrics(app.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reminder metrics: %w", err)
	}

	notificationLedger, err := app.setupLedger(ctx)
	if err != nil {
		return nil, err
	}

	app.recorder = attemptrecorder.NewRecorder(ctx, cfg.Telemetry, logger)

	gateway := o.gateway
	if gateway == nil {
		gateway, err = twilio.NewGateway(cfg.Telephony, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telephony gateway: %w", err)
		}
	}

	app.dispatcher = reminder.NewDispatcher(
		reminder.NewSelector(app.taskStore, logger),
		app.userStore,
		gateway,
		reminder.DispatcherConfig{
			Concurrency:      cfg.Reminder.Concurrency,
			RunTimeout:       cfg.Reminder.RunTimeout,
			RenotifyCooldown: cfg.Reminder.RenotifyCooldown,
		},
		logger,
		reminder.WithLedger(notificationLedger),
		reminder.WithRecorder(app.recorder),
		reminder.WithMetrics(reminderMetrics),
		reminder.WithClock(o.clock),
	)

	logger.Info("application initialized",
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("concurrency", cfg.Reminder.Concurrency),
		slog.Duration("renotify_cooldown", cfg.Reminder.RenotifyCooldown),
		slog.Bool("redis_ledger", app.redisClient != nil))

	return app, nil
}

// setupLedger connects to redis when an address is configured and falls
// back to an in-memory ledger otherwise.
func (app *application) setupLedger(ctx context.Context) (reminder.Ledger, error) {
	cfg := app.config.Redis
	if cfg.Addr == "" {
		app.logger.Info("redis not configured, using in-memory notification ledger")
		return ledger.NewMemoryLedger(), nil
	}

	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redisotel.InstrumentTracing(app.redisClient); err != nil {
		app.logger.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()))
	}
	if err := redisotel.InstrumentMetrics(app.redisClient); err != nil {
		app.logger.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()))
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := app.redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	app.logger.Info("redis notification ledger connected", slog.String("addr", cfg.Addr))
	return ledger.NewRedisLedger(app.redisClient, ledgerTTL(app.config.Reminder.RenotifyCooldown)), nil
}

// ledgerTTL keeps entries for at least twice the cooldown.
func ledgerTTL(cooldown time.Duration) time.Duration {
	if ttl := 2 * cooldown; ttl > ledger.DefaultTTL {
		return ttl
	}
	return ledger.DefaultTTL
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup(ctx context.Context) {
	var errs []error

	if app.recorder != nil {
		errs = append(errs, app.recorder.Close())
	}
	if app.meterProvider != nil {
		errs = append(errs, app.meterProvider.Shutdown(ctx))
	}
	if app.redisClient != nil {
		errs = append(errs, app.redisClient.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("error during cleanup", slog.String("error", err.Error()))
	}
}
