package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/store"
)

const taskColumns = `id, user_id, title, description, due_at, urgency, status,
	created_at, updated_at, deleted_at`

// TaskStore implements store.TaskStore on SQLite.
type TaskStore struct {
	db         store.DB
	logger     *slog.Logger
	classifier domain.UrgencyClassifier
	now        func() time.Time
}

// NewTaskStore creates a SQLite task store. If logger is nil, a default
// logger will be used.
func NewTaskStore(db store.DB, logger *slog.Logger, classifier domain.UrgencyClassifier) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:         db,
		logger:     logger.With(slog.String("component", "task_store")),
		classifier: classifier,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to stamp updates.
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var deletedAt sql.NullInt64
	if task.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: toMillis(*task.DeletedAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(), task.UserID.String(), task.Title, task.Description,
		toMillis(task.DueAt), int(task.Urgency), string(task.Status),
		toMillis(task.CreatedAt), toMillis(task.UpdatedAt), deletedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: owner %s", store.ErrUserNotFound, task.UserID)
		}
		log.Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "create", "insert failed", mapError(err))
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return getTask(ctx, s.db, id)
}

// Find implements store.TaskStore.Find
func (s *TaskStore) Find(
	ctx context.Context,
	filter store.TaskFilter,
	sort []store.TaskSort,
) ([]domain.Task, error) {
	orderBy, err := store.TaskOrderBy(sort)
	if err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != uuid.Nil {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID.String())
	}
	if !filter.DueBefore.IsZero() {
		conds = append(conds, "due_at < ?")
		args = append(args, toMillis(store.DueBeforeBound(filter.DueBefore, time.Millisecond)))
	}
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + orderBy

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "query failed", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "find", "scan failed", mapError(err))
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "find", "iteration failed", mapError(err))
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, s.logger))

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if task.IsDeleted() {
			return store.ErrTaskNotFound
		}

		if err := store.ApplyUpdate(task, update, s.now(), s.classifier); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, description = ?, due_at = ?, urgency = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			task.Title, task.Description, toMillis(task.DueAt), int(task.Urgency),
			string(task.Status), toMillis(task.UpdatedAt), task.ID.String(),
		)
		if err != nil {
			return store.NewStoreError("task", "update", "update failed", mapError(err))
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete implements store.TaskStore.SoftDelete
func (s *TaskStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET deleted_at = COALESCE(deleted_at, ?), updated_at = ?
		WHERE id = ?`,
		toMillis(at), toMillis(at), id.String(),
	)
	if err != nil {
		return store.NewStoreError("task", "delete", "update failed", mapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

func getTask(ctx context.Context, db store.DBTX, id uuid.UUID) (*domain.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", mapError(err))
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                      domain.Task
		id, userID, status        string
		urgency                   int
		dueAt, createdAt, updated int64
		deletedAt                 sql.NullInt64
	)
	err := row.Scan(
		&id, &userID, &task.Title, &task.Description, &dueAt,
		&urgency, &status, &createdAt, &updated, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if task.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse task id: %w", err)
	}
	if task.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse task user id: %w", err)
	}
	task.DueAt = fromMillis(dueAt)
	task.Urgency = domain.Urgency(urgency)
	task.Status = domain.TaskStatus(status)
	task.CreatedAt = fromMillis(createdAt)
	task.UpdatedAt = fromMillis(updated)
	if deletedAt.Valid {
		at := fromMillis(deletedAt.Int64)
		task.DeletedAt = &at
	}
	return &task, nil
}
