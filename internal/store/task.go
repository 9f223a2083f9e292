package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/duecall/internal/domain"
)

// TaskFilter narrows the tasks returned by TaskStore.Find.
// Zero values mean "no constraint".
type TaskFilter struct {
	// Status restricts results to a single status.
	Status domain.TaskStatus

	// UserID restricts results to tasks owned by one user.
	UserID uuid.UUID

	// DueBefore keeps tasks whose due timestamp is strictly before it.
	DueBefore time.Time

	// IncludeDeleted keeps soft-deleted tasks in the result.
	IncludeDeleted bool
}

// Matches reports whether task satisfies the filter. Store backends that
// cannot push a constraint down to the query use it as a post-filter.
func (f TaskFilter) Matches(task *domain.Task) bool {
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if f.UserID != uuid.Nil && task.UserID != f.UserID {
		return false
	}
	if !f.DueBefore.IsZero() && !task.DueAt.Before(f.DueBefore) {
		return false
	}
	if !f.IncludeDeleted && task.IsDeleted() {
		return false
	}
	return true
}

// TaskSortField names a sortable task column.
type TaskSortField string

// Sortable task fields
const (
	SortByUrgency   TaskSortField = "urgency"
	SortByDueAt     TaskSortField = "due_at"
	SortByCreatedAt TaskSortField = "created_at"
	SortByID        TaskSortField = "id"
)

// TaskSort is one ordering key. Keys are applied in slice order.
type TaskSort struct {
	Field      TaskSortField
	Descending bool
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	Status      *domain.TaskStatus
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the task fails validation or its owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, including soft-deleted tasks.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Find returns tasks matching filter, ordered by the given sort keys.
	// An empty result is an empty slice, not an error.
	Find(ctx context.Context, filter TaskFilter, sort []TaskSort) ([]domain.Task, error)

	// Update applies a partial update and returns the updated task.
	// When DueAt changes, urgency is recomputed in the same transaction.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// SoftDelete marks a task deleted at the given time.
	// Returns ErrTaskNotFound if the task does not exist.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ApplyUpdate applies update to task in memory, recomputing urgency against
// now when the due timestamp changes. Store implementations call it inside
// their update transaction so that urgency never goes stale.
func ApplyUpdate(
	task *domain.Task,
	update TaskUpdate,
	now time.Time,
	classifier domain.UrgencyClassifier,
) error {
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.DueAt != nil {
		if err := task.Reschedule(*update.DueAt, now, classifier); err != nil {
			return err
		}
	}
	if update.Status != nil {
		if err := task.SetStatus(*update.Status, now); err != nil {
			return err
		}
	}
	task.UpdatedAt = now.UTC()

	return task.Validate()
}
