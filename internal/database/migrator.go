// Package database applies the SQL migrations of the user directory.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

const createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrator applies *.up.sql files in lexical order, each in its own transaction,
// and records applied versions in schema_migrations.
type Migrator struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{db: db, log: log}
}

// Apply runs the pending migrations found in root of fsys and returns how many it applied.
func (m *Migrator) Apply(ctx context.Context, fsys fs.FS, root string) (int, error) {
	names, err := ListMigrations(fsys, root)
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	if len(names) == 0 {
		m.log.InfoContext(ctx, "no .up.sql migrations found", slog.String("dir", root))
		return 0, nil
	}

	if _, err := m.db.ExecContext(ctx, createVersionsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, name := range names {
		done, err := m.isApplied(ctx, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		data, err := fs.ReadFile(fsys, joinPath(root, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %q: %w", name, err)
		}
		if err := m.applyOne(ctx, name, string(data)); err != nil {
			return applied, err
		}
		applied++
	}

	m.log.InfoContext(ctx, "migrations applied", slog.Int("applied", applied), slog.Int("total", len(names)))
	return applied, nil
}

func (m *Migrator) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %q: %w", version, err)
	}
	return exists, nil
}

func (m *Migrator) applyOne(ctx context.Context, version, body string) error {
	log := m.log.With(slog.String("file", version))

	statement := strings.TrimSpace(body)
	if statement == "" {
		log.WarnContext(ctx, "migration is empty, skipping")
		return nil
	}

	log.InfoContext(ctx, "applying migration")

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for migration %q: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx, statement); err != nil {
		rollback(ctx, log, tx)
		return fmt.Errorf("execute migration %q: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		rollback(ctx, log, tx)
		return fmt.Errorf("record migration %q: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %q: %w", version, err)
	}
	return nil
}

func rollback(ctx context.Context, log *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.ErrorContext(ctx, "rollback error", slog.Any("error", err))
	}
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

func joinPath(root, name string) string {
	if root == "" || root == "." {
		return name
	}
	return strings.TrimSuffix(root, "/") + "/" + name
}

// ListMigrations returns all .up.sql files in root of fsys in lexical order.
func ListMigrations(fsys fs.FS, root string) ([]string, error) {
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isUpMigration(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}
