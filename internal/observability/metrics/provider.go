package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/phrazzld/duecall/internal/config"
)

const exportInterval = 30 * time.Second

// NewMeterProvider builds the process meter provider and installs it as the
// global provider. Without an OTLP endpoint the provider has no reader and
// instruments record nothing.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []sdkmetric.Option
	if cfg.OTLPEndpoint != "" {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}

		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
		))

		logger.InfoContext(ctx, "OTLP metric export enabled",
			slog.String("endpoint", cfg.OTLPEndpoint),
			slog.Bool("insecure", cfg.OTLPInsecure),
		)
	} else {
		logger.InfoContext(ctx, "OTLP endpoint not configured, metric export disabled")
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return provider, nil
}
