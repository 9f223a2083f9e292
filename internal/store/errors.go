package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by the postgres and sqlite backends.
var (
	// ErrNotFound is the category every entity-specific not-found error wraps.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate means a unique key (user phone, task id) is already taken.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity means a row was rejected before or by the database.
	// Domain validation failures are wrapped beneath it.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUnavailable means the backend could not answer at all.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTransactionFailed means begin or commit failed.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// IsNotFoundError reports whether err is a not-found error for any entity.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError records which entity and operation failed. It unwraps to the
// underlying sentinel or driver error.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
