package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of one dispatch attempt.
type Outcome string

// Dispatch outcomes
const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeFailed           Outcome = "failed"
	OutcomeUserNotFound     Outcome = "skipped_user_not_found"
	OutcomeMissingContact   Outcome = "skipped_missing_contact"
	OutcomeRecentlyNotified Outcome = "skipped_recently_notified"
	OutcomeCancelled        Outcome = "cancelled"
)

// Skipped reports whether the outcome is a skip that placed no call.
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeUserNotFound, OutcomeMissingContact, OutcomeRecentlyNotified:
		return true
	default:
		return false
	}
}

// Attempt is the record of dispatching one task within a run.
type Attempt struct {
	RunID   uuid.UUID
	TaskID  uuid.UUID
	UserID  uuid.UUID
	Urgency int
	Outcome Outcome
	Err     error
	At      time.Time
}

// Run results reported to Metrics.
const (
	RunResultCompleted = "completed"
	RunResultAborted   = "aborted"
	RunResultCancelled = "cancelled"
	RunResultSkipped   = "skipped"
)

// RunSummary aggregates the attempts of one run. Attempted counts gateway
// calls made, so Attempted == Succeeded + Failed.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Selected   int       `json:"selected"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Cancelled  int       `json:"cancelled"`
}

// Duration is the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *RunSummary) add(outcome Outcome) {
	switch {
	case outcome == OutcomeSucceeded:
		s.Attempted++
		s.Succeeded++
	case outcome == OutcomeFailed:
		s.Attempted++
		s.Failed++
	case outcome == OutcomeCancelled:
		s.Cancelled++
	case outcome.Skipped():
		s.Skipped++
	}
}

// AttemptRecorder persists attempts for later analysis. Errors are logged by
// the dispatcher and never affect the run.
type AttemptRecorder interface {
	Record(ctx context.Context, attempt Attempt) error
}

// Metrics receives counters for attempts and runs.
type Metrics interface {
	RecordAttempt(ctx context.Context, outcome Outcome)
	RecordRun(ctx context.Context, result string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Attempt) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(context.Context, Outcome) {}
func (nopMetrics) RecordRun(context.Context, string, time.Duration) {}
