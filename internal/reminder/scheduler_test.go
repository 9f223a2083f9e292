package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to Runner.
type runnerFunc func(ctx context.Context, now time.Time) (RunSummary, error)

func (f runnerFunc) RunOnce(ctx context.Context, now time.Time) (RunSummary, error) {
	return f(ctx, now)
}

func TestNewScheduler_RejectsInvalidSchedule(t *testing.T) {
	runner := runnerFunc(func(context.Context, time.Time) (RunSummary, error) { return RunSummary{}, nil })

	for _, spec := range []string{"", "every day", "61 * * * *", "* * * * * *"} {
		_, err := NewScheduler(spec, time.UTC, runner, nil, nil)
		assert.Error(t, err, "spec %q", spec)
	}

	_, err := NewScheduler("0 0 * * *", time.UTC, nil, nil, nil)
	assert.Error(t, err)
}

func TestScheduler_NextUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	runner := runnerFunc(func(context.Context, time.Time) (RunSummary, error) { return RunSummary{}, nil })

	s, err := NewScheduler("0 0 * * *", tokyo, runner, nil, nil)
	require.NoError(t, err)

	s.Start()
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	next := s.Next().In(tokyo)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestScheduler_FirePassesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var got time.Time
	runner := runnerFunc(func(_ context.Context, now time.Time) (RunSummary, error) {
		got = now
		return RunSummary{}, nil
	})

	s, err := NewScheduler("@daily", time.UTC, runner, func() time.Time { return fixed }, nil)
	require.NoError(t, err)

	s.fire()

	assert.Equal(t, fixed, got)
}

func TestScheduler_FireLogsOutcomes(t *testing.T) {
	results := []error{ErrRunInProgress, errors.New("task store unavailable")}
	i := 0
	runner := runnerFunc(func(context.Context, time.Time) (RunSummary, error) {
		err := results[i]
		i++
		return RunSummary{}, err
	})

	log, buf := logger.NewTestLogger()
	s, err := NewScheduler("@daily", time.UTC, runner, nil, log)
	require.NoError(t, err)

	s.fire()
	s.fire()

	skipped, err := buf.EntriesWithMessage("scheduled reminder run skipped, previous run still active")
	require.NoError(t, err)
	assert.Len(t, skipped, 1)

	failed, err := buf.EntriesWithMessage("scheduled reminder run failed")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "task store unavailable", failed[0]["error"])
}

func TestScheduler_TriggersDispatcher(t *testing.T) {
	f := newFixture()
	u := f.user("+15550000099")
	f.overdue(u.ID, "x", -time.Hour)

	fired := make(chan struct{}, 8)
	d := f.dispatcher(DispatcherConfig{})
	runner := runnerFunc(func(ctx context.Context, now time.Time) (RunSummary, error) {
		summary, err := d.RunOnce(ctx, now)
		fired <- struct{}{}
		return summary, err
	})

	s, err := NewScheduler("@every 1s", time.UTC, runner, func() time.Time { return testNow }, nil)
	require.NoError(t, err)
	s.Start()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("schedule never fired")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NotEmpty(t, f.gateway.Calls())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	runner := runnerFunc(func(ctx context.Context, _ time.Time) (RunSummary, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return RunSummary{}, ctx.Err()
	})

	s, err := NewScheduler("@every 1s", time.UTC, runner, nil, nil)
	require.NoError(t, err)
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("schedule never fired")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestScheduler_RestartGetsFreshContext(t *testing.T) {
	fired := make(chan error, 8)
	runner := runnerFunc(func(ctx context.Context, _ time.Time) (RunSummary, error) {
		fired <- ctx.Err()
		return RunSummary{}, nil
	})

	s, err := NewScheduler("@every 1s", time.UTC, runner, nil, nil)
	require.NoError(t, err)

	for round := 0; round < 2; round++ {
		s.Start()
		select {
		case ctxErr := <-fired:
			assert.NoError(t, ctxErr, "round %d fired with a cancelled context", round)
		case <-time.After(3 * time.Second):
			t.Fatalf("round %d: schedule never fired", round)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, s.Stop(ctx))
		cancel()

		// Drop any fire that raced with Stop.
		for len(fired) > 0 {
			<-fired
		}
	}
}
