// Package attemptrecorder persists reminder dispatch attempts to a time
// series store for later analysis.
package attemptrecorder

import (
	"context"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/reminder"
)

// Recorder is an AttemptRecorder that owns a connection.
type Recorder interface {
	reminder.AttemptRecorder
	Close() error
}

// NewRecorder returns an InfluxDB recorder, or a noop recorder when the
// InfluxDB url, token or org is not configured.
func NewRecorder(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.InfluxDBURL == "" || cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		logger.InfoContext(ctx, "InfluxDB not configured, attempt recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder()
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	logger.InfoContext(ctx, "attempt recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client: client,
		writer: writeAPI,
		logger: logger.With(slog.String("component", "attempt_recorder")),
	}
}
