package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledQueue(t *testing.T, jobs ...Job) *Queue {
	t.Helper()
	q := NewQueue(len(jobs), setupTestLogger())
	for _, job := range jobs {
		require.NoError(t, q.Enqueue(job))
	}
	q.Close()
	return q
}

func waitOrFail(t *testing.T, pool *Pool) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pool to drain")
	}
}

func TestNewPool_DefaultsWorkerCount(t *testing.T) {
	q := NewQueue(1, nil)

	pool := NewPool(context.Background(), q, PoolConfig{WorkerCount: 0}, setupTestLogger())
	assert.Equal(t, 1, pool.workerCount)

	pool = NewPool(context.Background(), q, PoolConfig{WorkerCount: -5}, setupTestLogger())
	assert.Equal(t, 1, pool.workerCount)

	pool = NewPool(context.Background(), q, PoolConfig{WorkerCount: 4}, setupTestLogger())
	assert.Equal(t, 4, pool.workerCount)
}

func TestPool_SequentialPreservesOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		ran []string
	)
	jobs := make([]Job, 0, 5)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("job-%d", i)
		jobs = append(jobs, funcJob{id: id, fn: func(context.Context) error {
			mu.Lock()
			ran = append(ran, id)
			mu.Unlock()
			return nil
		}})
	}

	pool := NewPool(context.Background(), filledQueue(t, jobs...), PoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.Start()
	waitOrFail(t, pool)

	assert.Equal(t, []string{"job-0", "job-1", "job-2", "job-3", "job-4"}, ran)
	assert.Equal(t, 5, pool.Started())
}

func TestPool_ConcurrentStartOrderFollowsQueue(t *testing.T) {
	const n = 20
	var executed atomic.Int32
	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, funcJob{id: fmt.Sprintf("%02d", i), fn: func(context.Context) error {
			time.Sleep(time.Millisecond)
			executed.Add(1)
			return nil
		}})
	}

	var starts []string
	pool := NewPool(context.Background(), filledQueue(t, jobs...), PoolConfig{WorkerCount: 4}, setupTestLogger())
	pool.SetStartHandler(func(job Job, seq int) {
		assert.Equal(t, len(starts), seq)
		starts = append(starts, job.ID())
	})
	pool.Start()
	waitOrFail(t, pool)

	require.Len(t, starts, n)
	for i, id := range starts {
		assert.Equal(t, fmt.Sprintf("%02d", i), id)
	}
	assert.Equal(t, int32(n), executed.Load())
}

func TestPool_ErrorDoesNotStopOthers(t *testing.T) {
	expectedErr := errors.New("test error")
	var ok atomic.Int32

	jobs := []Job{
		funcJob{id: "ok-1", fn: func(context.Context) error { ok.Add(1); return nil }},
		funcJob{id: "bad", fn: func(context.Context) error { return expectedErr }},
		funcJob{id: "ok-2", fn: func(context.Context) error { ok.Add(1); return nil }},
	}

	var (
		mu     sync.Mutex
		failed = map[string]error{}
	)
	pool := NewPool(context.Background(), filledQueue(t, jobs...), PoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(job Job, err error) {
		mu.Lock()
		failed[job.ID()] = err
		mu.Unlock()
	})
	pool.Start()
	waitOrFail(t, pool)

	assert.Equal(t, int32(2), ok.Load())
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["bad"], expectedErr)
}

func TestPool_PanicIsRecovered(t *testing.T) {
	var after atomic.Bool
	jobs := []Job{
		funcJob{id: "panics", fn: func(context.Context) error { panic("test panic") }},
		funcJob{id: "after", fn: func(context.Context) error { after.Store(true); return nil }},
	}

	errs := make(chan error, 2)
	pool := NewPool(context.Background(), filledQueue(t, jobs...), PoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(_ Job, err error) { errs <- err })
	pool.Start()
	waitOrFail(t, pool)

	require.Len(t, errs, 1)
	err := <-errs
	assert.ErrorIs(t, err, ErrJobPanicked)
	assert.Contains(t, err.Error(), "test panic")
	assert.True(t, after.Load())
}

func TestPool_CancelStopsTakingJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32

	jobs := []Job{
		funcJob{id: "first", fn: func(context.Context) error { ran.Add(1); cancel(); return nil }},
		funcJob{id: "second", fn: func(context.Context) error { ran.Add(1); return nil }},
		funcJob{id: "third", fn: func(context.Context) error { ran.Add(1); return nil }},
	}

	pool := NewPool(ctx, filledQueue(t, jobs...), PoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.Start()
	waitOrFail(t, pool)

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, 1, pool.Started())
}

func TestPool_CancelOnOpenQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(1, nil)
	pool := NewPool(ctx, q, PoolConfig{WorkerCount: 2}, setupTestLogger())
	pool.Start()

	cancel()
	waitOrFail(t, pool)
	assert.Equal(t, 0, pool.Started())
}
