package settings

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the settings and checkpoint tables when missing.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errBunDatabaseRequired
	}
	for _, model := range []any{(*settingsModel)(nil), (*checkpointModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("settings: create table: %w", err)
		}
	}
	return nil
}
