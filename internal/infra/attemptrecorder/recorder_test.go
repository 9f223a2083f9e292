package attemptrecorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/reminder"
)

type fakeWriter struct {
	points []*write.Point
	err    error
}

func (w *fakeWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	if w.err != nil {
		return w.err
	}
	w.points = append(w.points, points...)
	return nil
}

func testAttempt() reminder.Attempt {
	return reminder.Attempt{
		RunID:   uuid.New(),
		TaskID:  uuid.New(),
		UserID:  uuid.New(),
		Urgency: 0,
		Outcome: reminder.OutcomeFailed,
		Err:     errors.New("call to +15551234567 rejected"),
		At:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewRecorder_FallsBackToNoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{name: "nothing configured", cfg: config.TelemetryConfig{}},
		{name: "missing token", cfg: config.TelemetryConfig{InfluxDBURL: "http://localhost:8086", InfluxDBOrg: "org"}},
		{name: "missing org", cfg: config.TelemetryConfig{InfluxDBURL: "http://localhost:8086", InfluxDBToken: "tok"}},
		{name: "missing url", cfg: config.TelemetryConfig{InfluxDBToken: "tok", InfluxDBOrg: "org"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := NewRecorder(context.Background(), tt.cfg, nil)
			_, ok := rec.(*noopRecorder)
			assert.True(t, ok, "expected noop recorder, got %T", rec)
			assert.NoError(t, rec.Record(context.Background(), testAttempt()))
			assert.NoError(t, rec.Close())
		})
	}
}

func TestNewRecorder_InfluxDB(t *testing.T) {
	t.Parallel()

	testLogger, buf := logger.NewTestLogger()
	rec := NewRecorder(context.Background(), config.TelemetryConfig{
		InfluxDBURL:    "http://localhost:8086",
		InfluxDBToken:  "token",
		InfluxDBOrg:    "duecall",
		InfluxDBBucket: "reminder_attempts",
	}, testLogger)

	_, ok := rec.(*influxDBRecorder)
	require.True(t, ok, "expected influxdb recorder, got %T", rec)
	assert.NoError(t, rec.Close())

	entries, err := buf.EntriesWithMessage("attempt recorder initialized")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "reminder_attempts", entries[0]["bucket"])
}

func TestInfluxDBRecorder_Record(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	rec := &influxDBRecorder{writer: w}
	attempt := testAttempt()

	require.NoError(t, rec.Record(context.Background(), attempt))
	require.Len(t, w.points, 1)

	p := w.points[0]
	assert.Equal(t, attemptMeasurement, p.Name())
	assert.True(t, attempt.At.Equal(p.Time()))

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, attempt.RunID.String(), tags["run_id"])
	assert.Equal(t, "failed", tags["outcome"])

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, attempt.TaskID.String(), fields["task_id"])
	assert.Equal(t, attempt.UserID.String(), fields["user_id"])
	assert.EqualValues(t, 0, fields["urgency"])
	assert.NotContains(t, fields["error"], "5551234567")
	assert.Contains(t, fields["error"], "rejected")
}

func TestInfluxDBRecorder_RecordError(t *testing.T) {
	t.Parallel()

	rec := &influxDBRecorder{writer: &fakeWriter{err: errors.New("bucket not found")}}
	attempt := testAttempt()

	err := rec.Record(context.Background(), attempt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), attempt.TaskID.String())
	assert.Contains(t, err.Error(), "bucket not found")
}
