package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/duecall/internal/redact"
	"github.com/robfig/cron/v3"
)

// Runner executes one reminder run. *Dispatcher satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) (RunSummary, error)
}

// Scheduler fires a Runner on a cron schedule evaluated in a fixed location.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	runner  Runner
	clock   func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	// ctx is the parent of every run fired since the last Start; Stop
	// cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses spec (standard 5-field cron or a descriptor such as
// @daily) and binds it to runner. A nil location means UTC; a nil clock
// means time.Now.
func NewScheduler(
	spec string,
	loc *time.Location,
	runner Runner,
	clock func() time.Time,
	logger *slog.Logger,
) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "reminder_scheduler"))

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
		clock:  clock,
		logger: logger,
	}

	id, err := c.AddFunc(spec, s.fire)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.entryID = id

	return s, nil
}

// Start arms the trigger. Calling Start twice is a no-op; a stopped
// scheduler can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.logger.Info("reminder schedule armed", slog.Time("next_run", s.Next()))
}

// Stop disarms the trigger, cancels an in-flight run and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	stopped := s.cron.Stop()
	if cancel != nil {
		cancel()
	}

	select {
	case <-stopped.Done():
		s.logger.Info("reminder schedule stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for reminder run to stop: %w", ctx.Err())
	}
}

// Next returns the next fire time, or the zero time when not armed.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := s.runner.RunOnce(ctx, s.clock())
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Warn("scheduled reminder run skipped, previous run still active")
	case err != nil:
		s.logger.Error("scheduled reminder run failed",
			slog.String("run_id", summary.RunID.String()),
			slog.String("error", redact.Error(err)))
	default:
		s.logger.Debug("scheduled reminder run completed",
			slog.String("run_id", summary.RunID.String()))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
