package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/duecall/internal/api"
	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/reminder"
	"github.com/phrazzld/duecall/internal/service/auth"
)

const defaultShutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var initSchema bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Arm the reminder schedule and serve the admin API",
		Long: `Arms the configured reminder schedule and serves /health and the
authenticated admin endpoints until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := loadConfigAndLogger(root.configPath)
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log, withSchemaInit(initSchema))
			if err != nil {
				log.Error("failed to initialize application", slog.String("error", err.Error()))
				return err
			}

			return app.serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "create the postgres tables if they do not exist")

	return cmd
}

// loadConfigAndLogger loads and validates configuration, then installs the
// JSON logger as the slog default.
func loadConfigAndLogger(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("schedule", cfg.Reminder.Schedule),
		slog.String("timezone", cfg.Reminder.Timezone))

	return cfg, log, nil
}

// serve arms the scheduler and runs the HTTP server until ctx is done, then
// shuts both down within the configured timeout.
func (app *application) serve(ctx context.Context) error {
	defer app.cleanup(context.Background())

	scheduler, err := reminder.NewScheduler(
		app.config.Reminder.Schedule,
		app.config.Reminder.Location(),
		app.dispatcher,
		app.clock,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	validator, err := auth.NewTokenValidator(app.config.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token validator: %w", err)
	}

	router := api.NewRouter(api.RouterDeps{
		Logger:    app.logger,
		Validator: validator,
		Reminders: api.NewReminderHandler(app.dispatcher, app.clock, scheduler.Next, app.logger),
		Health:    api.NewHealthHandler(app.db, app.logger),
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(app.config.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	scheduler.Start()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	case err, ok := <-serverErr:
		if ok {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		app.logger.Error("scheduler stop failed", slog.String("error", err.Error()))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		if runErr == nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	app.logger.Info("server shutdown completed")
	return runErr
}
