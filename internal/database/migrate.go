package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// Migrate applies every *.surql file in fsys, in lexical order, that has not
// been recorded in the migration table yet. seed.surql is never applied.
func Migrate(ctx context.Context, db Database, fsys fs.FS) error {
	names, err := MigrationNames(fsys)
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := migrationApplied(ctx, db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		batch := NewAtomicBatch().
			Add(string(content), nil).
			Add(`CREATE migration CONTENT { name: $name, applied_on: time::now() }`,
				map[string]interface{}{"name": name})
		if err := batch.Execute(ctx, db); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}

		slog.Info("applied migration", slog.String("name", name))
	}

	return nil
}

// MigrationNames lists the schema migration files in fsys in apply order.
func MigrationNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".surql") && name != "seed.surql" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func migrationApplied(ctx context.Context, db Database, name string) (bool, error) {
	_, err := db.QueryOne(ctx, `SELECT name FROM migration WHERE name = $name LIMIT 1`,
		map[string]interface{}{"name": name})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("checking migration %s: %w", name, err)
	}
}
