package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID     = fmt.Errorf("%w: task ID cannot be empty", ErrInvalidID)
	ErrEmptyTaskUserID = fmt.Errorf("%w: task user ID cannot be empty", ErrInvalidID)
	ErrEmptyTaskTitle  = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrEmptyTaskDueAt  = fmt.Errorf("%w: task due timestamp cannot be empty", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid task status", ErrValidation)
	ErrInvalidUrgency  = fmt.Errorf("%w: invalid task urgency", ErrValidation)
	ErrTaskAlreadyGone = errors.New("task is deleted")
)

// Task is a unit of work owned by a user. Urgency is stored, not derived on
// read: it is classified when the task is created and again every time its
// due timestamp changes.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       time.Time  `json:"due_at"`
	Urgency     Urgency    `json:"urgency"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewTask creates a pending task for userID with urgency classified against now.
// Returns an error if validation fails.
func NewTask(
	userID uuid.UUID,
	title, description string,
	dueAt, now time.Time,
	classifier UrgencyClassifier,
) (*Task, error) {
	now = now.UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueAt:       dueAt.UTC(),
		Urgency:     classifier.Classify(dueAt, now),
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}
	if t.DueAt.IsZero() {
		return ErrEmptyTaskDueAt
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Urgency.Valid() {
		return ErrInvalidUrgency
	}
	return nil
}

// Reschedule moves the due timestamp and recomputes urgency against now.
func (t *Task) Reschedule(dueAt, now time.Time, classifier UrgencyClassifier) error {
	if t.IsDeleted() {
		return ErrTaskAlreadyGone
	}
	if dueAt.IsZero() {
		return ErrEmptyTaskDueAt
	}

	t.DueAt = dueAt.UTC()
	t.Urgency = classifier.Classify(dueAt, now)
	t.UpdatedAt = now.UTC()
	return nil
}

// SetStatus changes the task status.
func (t *Task) SetStatus(status TaskStatus, now time.Time) error {
	if t.IsDeleted() {
		return ErrTaskAlreadyGone
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	t.Status = status
	t.UpdatedAt = now.UTC()
	return nil
}

// SoftDelete marks the task deleted at the given time. Deleting twice keeps
// the first timestamp.
func (t *Task) SoftDelete(now time.Time) {
	if t.DeletedAt != nil {
		return
	}
	at := now.UTC()
	t.DeletedAt = &at
	t.UpdatedAt = at
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsOverdue reports whether the task is pending, not deleted and due strictly
// before now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && !t.IsDeleted() && t.DueAt.Before(now)
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}
