package worker

import (
	"context"
	"errors"
)

// ErrJobPanicked wraps the value recovered from a panicking job.
var ErrJobPanicked = errors.New("job panicked")

// Job is a unit of work processed by the pool.
type Job interface {
	// ID identifies the job in logs.
	ID() string

	// Execute runs the job.
	Execute(ctx context.Context) error
}

// QueueReader provides read-only access to the job channel.
type QueueReader interface {
	// Channel returns a read-only channel for consuming jobs.
	Channel() <-chan Job
}
