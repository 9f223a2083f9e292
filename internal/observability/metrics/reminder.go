// Package metrics exposes OpenTelemetry instruments for reminder runs.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/phrazzld/duecall/internal/reminder"
)

const (
	reminderMeterName = "duecall.reminder"
)

type ReminderMetrics struct {
	dispatchTotal metric.Int64Counter
	runsTotal     metric.Int64Counter
	runDuration   metric.Float64Histogram
}

func NewReminderMetrics(provider metric.MeterProvider) (*ReminderMetrics, error) {
	meter := provider.Meter(reminderMeterName)

	dispatchTotal, err := meter.Int64Counter(
		"reminder_dispatch_total",
		metric.WithDescription("Total number of reminder dispatch attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	runsTotal, err := meter.Int64Counter(
		"reminder_runs_total",
		metric.WithDescription("Total number of reminder runs by result"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"reminder_run_duration_seconds",
		metric.WithDescription("Reminder run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		dispatchTotal: dispatchTotal,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
	}, nil
}

func (m *ReminderMetrics) RecordAttempt(ctx context.Context, outcome reminder.Outcome) {
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
	))
}

// RecordRun counts the run. Skipped runs did no work and are not timed.
func (m *ReminderMetrics) RecordRun(ctx context.Context, result string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.runsTotal.Add(ctx, 1, attrs)
	if result != reminder.RunResultSkipped {
		m.runDuration.Record(ctx, duration.Seconds(), attrs)
	}
}
