package entity

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate runs all pending SQL migrations in lexicographic order.
// It creates the gms schema and schema_migrations tracking table if needed,
// then applies any .sql files not yet recorded.
func Migrate(ctx context.Context, pool db.Pool) error {
	log := zap.L().With(zap.String("component", "gms.migrate"))

	// Advisory lock prevents concurrent migration runs (e.g. overlapping deploys).
	if _, err := pool.Exec(ctx, "SELECT pg_advisory_lock(4712601)"); err != nil {
		return eris.Wrap(err, "gms: acquire migration advisory lock")
	}
	defer func() {
		if _, err := pool.Exec(ctx, "SELECT pg_advisory_unlock(4712601)"); err != nil {
			log.Warn("gms: failed to release migration advisory lock", zap.Error(err))
		}
	}()

	if err := ensureMigrationTable(ctx, pool); err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "gms: read migration dir")
	}

	// Sort by filename (lexicographic = numeric order with zero-padded names).
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if applied[name] {
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return eris.Wrapf(err, "gms: read migration %s", name)
		}

		log.Info("applying migration", zap.String("file", name))

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "gms: apply migration %s", name)
		}

		if _, err := pool.Exec(ctx,
			"INSERT INTO gms.schema_migrations (filename, applied_at) VALUES ($1, now())",
			name,
		); err != nil {
			return eris.Wrapf(err, "gms: record migration %s", name)
		}

		log.Info("migration applied", zap.String("file", name))
	}

	return nil
}

// ensureMigrationTable creates the gms schema and migration tracking table if they don't exist.
func ensureMigrationTable(ctx context.Context, pool db.Pool) error {
	sql := `
		CREATE SCHEMA IF NOT EXISTS gms;
		CREATE TABLE IF NOT EXISTS gms.schema_migrations (
			id         SERIAL PRIMARY KEY,
			filename   TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "gms: ensure migration table")
	}
	return nil
}

// appliedMigrations returns the set of already-applied migration filenames.
func appliedMigrations(ctx context.Context, pool db.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT filename FROM gms.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "gms: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "gms: scan migration filename")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
