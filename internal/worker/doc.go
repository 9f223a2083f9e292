// Package worker provides a bounded FIFO job queue and a fixed-size pool of
// worker goroutines that drain it. Jobs start in the order they were
// enqueued; a failing or panicking job is reported to the error handler and
// never stops the pool.
package worker
