package store

import (
	"fmt"
	"strings"
	"time"
)

// taskSortColumns whitelists the columns a TaskSort may reference.
var taskSortColumns = map[TaskSortField]string{
	SortByUrgency:   "urgency",
	SortByDueAt:     "due_at",
	SortByCreatedAt: "created_at",
	SortByID:        "id",
}

// DefaultTaskSort is the reminder ordering: most urgent first, then earliest
// due, then id.
var DefaultTaskSort = []TaskSort{
	{Field: SortByUrgency},
	{Field: SortByDueAt},
	{Field: SortByID},
}

// TaskOrderBy renders sort as a SQL ORDER BY clause body. An empty sort uses
// DefaultTaskSort. The id column is always appended as the final key so the
// order is total. Unknown fields return ErrInvalidEntity.
func TaskOrderBy(sort []TaskSort) (string, error) {
	if len(sort) == 0 {
		sort = DefaultTaskSort
	}

	parts := make([]string, 0, len(sort)+1)
	hasID := false
	for _, s := range sort {
		col, ok := taskSortColumns[s.Field]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidEntity, s.Field)
		}
		if s.Field == SortByID {
			hasID = true
		}
		dir := "ASC"
		if s.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}

	return strings.Join(parts, ", "), nil
}

// DueBeforeBound rounds the strict upper bound t up to the next multiple of
// unit, the precision a backend stores timestamps at. A due timestamp stored
// truncated to unit then still compares below a finer-grained t that falls
// inside the same unit.
func DueBeforeBound(t time.Time, unit time.Duration) time.Time {
	bound := t.Truncate(unit)
	if bound.Before(t) {
		bound = bound.Add(unit)
	}
	return bound
}
