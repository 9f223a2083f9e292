package attemptrecorder

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/phrazzld/duecall/internal/redact"
	"github.com/phrazzld/duecall/internal/reminder"
)

const attemptMeasurement = "reminder_attempt"

// pointWriter is the subset of api.WriteAPIBlocking the recorder uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type influxDBRecorder struct {
	client influxdb2.Client
	writer pointWriter
	logger *slog.Logger
}

func attemptPoint(attempt reminder.Attempt) *write.Point {
	errText := ""
	if attempt.Err != nil {
		errText = redact.Error(attempt.Err)
	}

	return influxdb2.NewPoint(
		attemptMeasurement,
		map[string]string{
			"run_id":  attempt.RunID.String(),
			"outcome": string(attempt.Outcome),
		},
		map[string]any{
			"task_id": attempt.TaskID.String(),
			"user_id": attempt.UserID.String(),
			"urgency": attempt.Urgency,
			"error":   errText,
		},
		attempt.At,
	)
}

func (r *influxDBRecorder) Record(ctx context.Context, attempt reminder.Attempt) error {
	if err := r.writer.WritePoint(ctx, attemptPoint(attempt)); err != nil {
		return fmt.Errorf("failed to write attempt for task %s to InfluxDB: %w", attempt.TaskID, err)
	}

	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
		r.logger.Info("attempt recorder closed")
	}
	return nil
}
