package reminder

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/store"
)

// Selector picks the overdue tasks for a run.
type Selector struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewSelector creates a Selector reading from tasks.
func NewSelector(tasks store.TaskStore, logger *slog.Logger) *Selector {
	if tasks == nil {
		panic("tasks cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "reminder_selector")),
	}
}

// SelectOverdue returns pending, non-deleted tasks due strictly before now,
// ordered by urgency, then due time, then id. An empty result is an empty
// slice. A store failure is wrapped in ErrStoreUnavailable, unless ctx ended
// first, in which case ctx.Err() is returned as is.
func (s *Selector) SelectOverdue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	found, err := s.tasks.Find(ctx, store.TaskFilter{
		Status:    domain.TaskStatusPending,
		DueBefore: now,
	}, store.DefaultTaskSort)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	tasks := make([]domain.Task, 0, len(found))
	for _, task := range found {
		if task.IsOverdue(now) {
			tasks = append(tasks, task)
		}
	}
	if dropped := len(found) - len(tasks); dropped > 0 {
		s.logger.Warn("store returned tasks outside the overdue filter",
			slog.Int("dropped", dropped))
	}

	slices.SortStableFunc(tasks, compareOverdue)
	return tasks, nil
}

func compareOverdue(a, b domain.Task) int {
	if c := cmp.Compare(a.Urgency, b.Urgency); c != 0 {
		return c
	}
	if c := a.DueAt.Compare(b.DueAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
