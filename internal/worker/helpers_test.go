package worker

import "context"

// funcJob adapts a function to the Job interface.
type funcJob struct {
	id string
	fn func(ctx context.Context) error
}

func (j funcJob) ID() string { return j.id }

func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }
