package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/redact"
	"github.com/phrazzld/duecall/internal/store"
	"github.com/phrazzld/duecall/internal/worker"
)

// DispatcherConfig controls one run.
type DispatcherConfig struct {
	// Concurrency bounds parallel gateway calls. Values below 1 mean 1.
	Concurrency int

	// RunTimeout caps one run. Zero means no limit.
	RunTimeout time.Duration

	// RenotifyCooldown skips tasks successfully notified within this window.
	// Zero disables the check.
	RenotifyCooldown time.Duration
}

// Option configures optional Dispatcher collaborators.
type Option func(*Dispatcher)

// WithLedger sets the notification ledger.
func WithLedger(l Ledger) Option {
	return func(d *Dispatcher) { d.ledger = l }
}

// WithRecorder sets the attempt recorder.
func WithRecorder(r AttemptRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithClock sets the clock used for run and attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = now }
}

// Dispatcher runs the reminder job. It is safe for concurrent use; only one
// RunOnce executes at a time.
type Dispatcher struct {
	selector *Selector
	users    store.UserStore
	gateway  Gateway
	ledger   Ledger
	recorder AttemptRecorder
	metrics  Metrics
	clock    func() time.Time
	config   DispatcherConfig
	logger   *slog.Logger

	running atomic.Bool
}

// NewDispatcher creates a Dispatcher. Ledger, recorder and metrics default to
// no-ops.
func NewDispatcher(
	selector *Selector,
	users store.UserStore,
	gateway Gateway,
	config DispatcherConfig,
	logger *slog.Logger,
	opts ...Option,
) *Dispatcher {
	if selector == nil || users == nil || gateway == nil {
		panic("selector, users and gateway are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	d := &Dispatcher{
		selector: selector,
		users:    users,
		gateway:  gateway,
		ledger:   nopLedger{},
		recorder: nopRecorder{},
		metrics:  nopMetrics{},
		clock:    time.Now,
		config:   config,
		logger:   logger.With(slog.String("component", "reminder_dispatcher")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Running reports whether a run is in progress.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// RunOnce performs one run with now as the overdue reference time.
// It returns ErrRunInProgress without doing anything if another run is
// active, and an ErrStoreUnavailable-wrapped error if the task set cannot be
// read. Individual task failures are counted in the summary, not returned.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (RunSummary, error) {
	if !d.running.CompareAndSwap(false, true) {
		logger.FromContextOrDefault(ctx, d.logger).Warn("reminder run skipped, previous run still active")
		d.metrics.RecordRun(ctx, RunResultSkipped, 0)
		return RunSummary{}, ErrRunInProgress
	}
	defer d.running.Store(false)

	summary := RunSummary{
		RunID:     uuid.New(),
		StartedAt: d.clock().UTC(),
	}
	log := logger.FromContextOrDefault(ctx, d.logger).With(slog.String("run_id", summary.RunID.String()))
	ctx = logger.WithLogger(ctx, log)

	if d.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.RunTimeout)
		defer cancel()
	}

	log.Info("reminder run started", slog.Time("reference_time", now.UTC()))

	tasks, err := d.selector.SelectOverdue(ctx, now)
	if err != nil {
		summary.FinishedAt = d.clock().UTC()
		if !errors.Is(err, ErrStoreUnavailable) {
			log.Warn("reminder run cancelled before selecting tasks",
				slog.String("error", err.Error()))
			d.metrics.RecordRun(ctx, RunResultCancelled, summary.Duration())
			return summary, fmt.Errorf("reminder run cancelled: %w", err)
		}
		log.Error("reminder run aborted, could not select overdue tasks",
			slog.String("error", redact.Error(err)))
		d.metrics.RecordRun(ctx, RunResultAborted, summary.Duration())
		return summary, err
	}
	summary.Selected = len(tasks)

	tally := &tally{summary: &summary}
	d.dispatchAll(ctx, summary.RunID, now, tasks, tally)

	summary.FinishedAt = d.clock().UTC()
	result := RunResultCompleted
	var runErr error
	if ctxErr := ctx.Err(); ctxErr != nil && summary.Cancelled > 0 {
		result = RunResultCancelled
		runErr = fmt.Errorf("reminder run cancelled: %w", ctxErr)
	}
	d.metrics.RecordRun(ctx, result, summary.Duration())

	log.Info("reminder run finished",
		slog.String("result", result),
		slog.Int("selected", summary.Selected),
		slog.Int("attempted", summary.Attempted),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("cancelled", summary.Cancelled),
		slog.Duration("duration", summary.Duration()))

	return summary, runErr
}

// tally guards the summary counters shared by the workers.
type tally struct {
	mu      sync.Mutex
	summary *RunSummary
}

func (t *tally) add(outcome Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.add(outcome)
}

// dispatchJob adapts one task to a worker.Job. Its attempt is reported at
// most once, even if reporting itself panics and the pool hands the job to
// the error handler.
type dispatchJob struct {
	task     domain.Task
	run      func(ctx context.Context, task domain.Task) Attempt
	report   func(attempt Attempt)
	reported atomic.Bool
}

func (j *dispatchJob) ID() string { return j.task.ID.String() }

func (j *dispatchJob) Execute(ctx context.Context) error {
	j.complete(j.run(ctx, j.task))
	return nil
}

// complete reports attempt unless the job was already reported.
func (j *dispatchJob) complete(attempt Attempt) bool {
	if !j.reported.CompareAndSwap(false, true) {
		return false
	}
	j.report(attempt)
	return true
}

func (d *Dispatcher) dispatchAll(
	ctx context.Context,
	runID uuid.UUID,
	now time.Time,
	tasks []domain.Task,
	tally *tally,
) {
	if len(tasks) == 0 {
		return
	}
	log := logger.FromContextOrDefault(ctx, d.logger)

	queue := worker.NewQueue(len(tasks), log)
	for i := range tasks {
		job := &dispatchJob{
			task: tasks[i],
			run: func(ctx context.Context, task domain.Task) Attempt {
				return d.dispatch(ctx, runID, now, task)
			},
			report: func(attempt Attempt) {
				d.finish(ctx, tally, attempt)
			},
		}
		if err := queue.Enqueue(job); err != nil {
			// Capacity equals len(tasks), so this only fires on a logic error.
			log.Error("failed to enqueue task", slog.String("error", redact.Error(err)))
		}
	}
	queue.Close()
	log.Debug("overdue tasks queued",
		slog.Int("queued", queue.Len()),
		slog.Int("workers", d.config.Concurrency))

	pool := worker.NewPool(ctx, queue, worker.PoolConfig{WorkerCount: d.config.Concurrency}, log)
	pool.SetStartHandler(func(job worker.Job, seq int) {
		log.Debug("dispatch started", slog.String("task_id", job.ID()), slog.Int("seq", seq))
	})
	pool.SetErrorHandler(func(job worker.Job, err error) {
		// Only a recovered panic reaches here; dispatch itself never errors.
		dj, ok := job.(*dispatchJob)
		if !ok {
			return
		}
		reported := dj.complete(Attempt{
			RunID:   runID,
			TaskID:  dj.task.ID,
			UserID:  dj.task.UserID,
			Urgency: int(dj.task.Urgency),
			Outcome: OutcomeFailed,
			Err:     err,
			At:      d.clock().UTC(),
		})
		if !reported {
			log.Error("panic after attempt was reported",
				slog.String("task_id", dj.task.ID.String()),
				slog.String("error", redact.Error(err)))
		}
	})
	pool.Start()
	pool.Wait()

	// Jobs never taken off the queue were cut short by cancellation.
	for _, task := range tasks[pool.Started():] {
		d.finish(ctx, tally, Attempt{
			RunID:   runID,
			TaskID:  task.ID,
			UserID:  task.UserID,
			Urgency: int(task.Urgency),
			Outcome: OutcomeCancelled,
			Err:     ctx.Err(),
			At:      d.clock().UTC(),
		})
	}
}

// dispatch handles one task and never returns an error: every path ends in
// an Attempt with an outcome.
func (d *Dispatcher) dispatch(ctx context.Context, runID uuid.UUID, now time.Time, task domain.Task) Attempt {
	log := logger.FromContextOrDefault(ctx, d.logger)
	attempt := Attempt{
		RunID:   runID,
		TaskID:  task.ID,
		UserID:  task.UserID,
		Urgency: int(task.Urgency),
	}
	done := func(outcome Outcome, err error) Attempt {
		attempt.Outcome = outcome
		attempt.Err = err
		attempt.At = d.clock().UTC()
		return attempt
	}

	if err := ctx.Err(); err != nil {
		return done(OutcomeCancelled, err)
	}

	if d.config.RenotifyCooldown > 0 {
		last, ok, err := d.ledger.LastNotified(ctx, task.ID)
		switch {
		case err != nil:
			log.Warn("notification ledger read failed, dispatching anyway",
				slog.String("task_id", task.ID.String()),
				slog.String("error", redact.Error(err)))
		case ok && now.Sub(last) < d.config.RenotifyCooldown:
			return done(OutcomeRecentlyNotified, nil)
		}
	}

	user, err := d.users.GetByID(ctx, task.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Warn("owner lookup failed",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()),
				slog.String("error", redact.Error(err)))
		}
		return done(OutcomeUserNotFound, fmt.Errorf("%w: %w", ErrUserNotFound, err))
	}

	if !user.HasContact() {
		return done(OutcomeMissingContact, ErrMissingContact)
	}

	if err := d.gateway.PlaceCall(ctx, user.PhoneNumber); err != nil {
		return done(OutcomeFailed, fmt.Errorf("%w: %w", ErrGatewayFailure, err))
	}

	if err := d.ledger.MarkNotified(ctx, task.ID, now); err != nil {
		log.Warn("failed to record notification in ledger",
			slog.String("task_id", task.ID.String()),
			slog.String("error", redact.Error(err)))
	}
	return done(OutcomeSucceeded, nil)
}

// finish logs, counts and records one attempt.
func (d *Dispatcher) finish(ctx context.Context, tally *tally, attempt Attempt) {
	log := logger.FromContextOrDefault(ctx, d.logger)
	tally.add(attempt.Outcome)
	d.metrics.RecordAttempt(ctx, attempt.Outcome)

	attrs := []any{
		slog.String("task_id", attempt.TaskID.String()),
		slog.String("user_id", attempt.UserID.String()),
		slog.String("outcome", string(attempt.Outcome)),
		slog.Int("urgency", attempt.Urgency),
	}
	if attempt.Err != nil {
		attrs = append(attrs, slog.String("error", redact.Error(attempt.Err)))
	}
	switch attempt.Outcome {
	case OutcomeFailed:
		log.Error("reminder dispatch failed", attrs...)
	case OutcomeSucceeded:
		log.Info("reminder dispatched", attrs...)
	default:
		log.Info("reminder dispatch skipped", attrs...)
	}

	// The recorder outlives a cancelled run context.
	if err := d.recorder.Record(context.WithoutCancel(ctx), attempt); err != nil {
		log.Warn("failed to record attempt",
			slog.String("task_id", attempt.TaskID.String()),
			slog.String("error", redact.Error(err)))
	}
}
