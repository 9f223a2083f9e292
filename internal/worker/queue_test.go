package worker

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func noopJob(id string) Job {
	return funcJob{id: id, fn: func(context.Context) error { return nil }}
}

func TestQueue_EnqueueFIFO(t *testing.T) {
	q := NewQueue(3, setupTestLogger())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(noopJob(id)))
	}
	assert.Equal(t, 3, q.Len())

	q.Close()

	var got []string
	for job := range q.Channel() {
		got = append(got, job.ID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueue_Full(t *testing.T) {
	q := NewQueue(1, setupTestLogger())

	require.NoError(t, q.Enqueue(noopJob("a")))
	err := q.Enqueue(noopJob("b"))

	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, nil)
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(noopJob("a")), ErrQueueClosed)
}
