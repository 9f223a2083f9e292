package postgres

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

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db         store.DB
	logger     *slog.Logger
	classifier domain.UrgencyClassifier
	now        func() time.Time
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// The classifier recomputes urgency when an update moves a due timestamp.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(
	db store.DB,
	logger *slog.Logger,
	classifier domain.UrgencyClassifier,
) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:         db,
		logger:     logger.With(slog.String("component", "task_store")),
		classifier: classifier,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to stamp updates.
func (s *PostgresTaskStore) WithClock(now func() time.Time) *PostgresTaskStore {
	s.now = now
	return s
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.UserID, task.Title, task.Description, task.DueAt.UTC(),
		int(task.Urgency), string(task.Status), task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(), task.DeletedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner %s", store.ErrUserNotFound, task.UserID)
		}
		log.Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return getTask(ctx, s.db, id, false)
}

// Find implements store.TaskStore.Find
func (s *PostgresTaskStore) Find(
	ctx context.Context,
	filter store.TaskFilter,
	sort []store.TaskSort,
) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, err := store.TaskOrderBy(sort)
	if err != nil {
		return nil, err
	}

	where, args := taskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY ` + orderBy

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "find", "scan failed", MapError(err))
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		log.Error("failed iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "iteration failed", MapError(err))
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
// The row is locked, patched in memory (recomputing urgency on a due change)
// and written back within one transaction.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	ctx = logger.WithLogger(ctx, log)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := getTask(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if task.IsDeleted() {
			return store.ErrTaskNotFound
		}

		if err := store.ApplyUpdate(task, update, s.now(), s.classifier); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = $2, description = $3, due_at = $4, urgency = $5,
				status = $6, updated_at = $7
			WHERE id = $1`,
			task.ID, task.Title, task.Description, task.DueAt.UTC(),
			int(task.Urgency), string(task.Status), task.UpdatedAt.UTC(),
		)
		if err != nil {
			return store.NewStoreError("task", "update", "update failed", MapError(err))
		}
		if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) && !errors.Is(err, store.ErrInvalidEntity) {
			log.Error("failed to update task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Debug("task updated",
		slog.String("task_id", id.String()),
		slog.Int("urgency", int(updated.Urgency)))
	return updated, nil
}

// SoftDelete implements store.TaskStore.SoftDelete
// Deleting an already deleted task keeps its original deletion time.
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET deleted_at = COALESCE(deleted_at, $2), updated_at = $2
		WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		log.Error("failed to soft delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// taskWhere renders filter as a WHERE clause with positional parameters.
func taskWhere(filter store.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.UserID != uuid.Nil {
		add("user_id = $%d", filter.UserID)
	}
	if !filter.DueBefore.IsZero() {
		add("due_at < $%d", store.DueBeforeBound(filter.DueBefore, time.Microsecond).UTC())
	}
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func getTask(ctx context.Context, db store.DBTX, id uuid.UUID, forUpdate bool) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task      domain.Task
		urgency   int
		status    string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueAt,
		&urgency, &status, &task.CreatedAt, &task.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Urgency = domain.Urgency(urgency)
	task.Status = domain.TaskStatus(status)
	task.DueAt = task.DueAt.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if deletedAt.Valid {
		at := deletedAt.Time.UTC()
		task.DeletedAt = &at
	}
	return &task, nil
}
