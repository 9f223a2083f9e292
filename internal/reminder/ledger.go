package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger remembers when each task was last successfully notified so a task
// is not called again within the re-notify cooldown.
type Ledger interface {
	// LastNotified returns the last successful notification time for a
	// task. ok is false when the task has never been notified.
	LastNotified(ctx context.Context, taskID uuid.UUID) (at time.Time, ok bool, err error)

	// MarkNotified records a successful notification at the given time.
	MarkNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error
}

type nopLedger struct{}

func (nopLedger) LastNotified(context.Context, uuid.UUID) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (nopLedger) MarkNotified(context.Context, uuid.UUID, time.Time) error { return nil }
