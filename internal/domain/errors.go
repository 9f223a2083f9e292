package domain

import (
	"errors"
	"fmt"
)

// Error categories. Entity-specific sentinels wrap one of these so callers
// can test for the category with errors.Is.
var (
	// ErrValidation marks an entity that violates its own invariants.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID marks a missing or nil identifier. It wraps ErrValidation.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)
)
