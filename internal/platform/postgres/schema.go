package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/phrazzld/duecall/internal/store"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates the users and tasks tables when they do not exist.
// It never alters existing tables.
func EnsureSchema(ctx context.Context, db store.DBTX) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", MapError(err))
	}
	return nil
}
