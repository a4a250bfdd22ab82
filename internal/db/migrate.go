package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/migrations"
)

// Migrate applies the embedded schema files in name order. Statements are
// idempotent, so re-running on startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, name := range entries {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		if _, err := s.Pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}
