// Package migrate applies the embedded SQL schema files in name order.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/example/campwatch/internal/db"
)

//go:embed *.sql
var files embed.FS

// Store is the subset of *db.DB migrations need.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

// Versions lists the embedded migrations in the order Up applies them.
func Versions() ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Up applies every migration not yet recorded in schema_migrations and
// returns the versions it applied.
func Up(ctx context.Context, d Store) ([]string, error) {
	versions, err := Versions()
	if err != nil {
		return nil, err
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY);`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, v := range versions {
		var done bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, v).Scan(&done); err != nil {
			return applied, fmt.Errorf("check %s: %w", v, err)
		}
		if done {
			continue
		}

		b, err := files.ReadFile(v)
		if err != nil {
			return applied, err
		}
		if err := d.Exec(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("apply %s: %w", v, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, v); err != nil {
			return applied, fmt.Errorf("record %s: %w", v, err)
		}
		applied = append(applied, v)
	}
	return applied, nil
}
