package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationPool is the minimal interface required to run migrations.
// *pgxpool.Pool satisfies it.
type MigrationPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Connect opens a pgxpool connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const recordMigration = `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

// RunMigrations applies the .sql files in migrationsDir in lexicographic order. Each
// file runs in its own transaction together with its schema_migrations row, so files
// already recorded are skipped. It returns the names of the files applied.
func RunMigrations(ctx context.Context, pool MigrationPool, migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir %s: %w", migrationsDir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Strings(files)

	if err := runInTx(ctx, pool, func(tx pgx.Tx) (bool, error) {
		_, err := tx.Exec(ctx, createMigrationsTable)
		return true, err
	}); err != nil {
		return nil, fmt.Errorf("creating schema_migrations: %w", err)
	}

	var applied []string
	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return applied, fmt.Errorf("reading migration %s: %w", name, err)
		}

		committed := false
		err = runInTx(ctx, pool, func(tx pgx.Tx) (bool, error) {
			tag, err := tx.Exec(ctx, recordMigration, name)
			if err != nil {
				return false, err
			}
			if tag.RowsAffected() == 0 {
				return false, nil
			}
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return false, err
			}
			committed = true
			return true, nil
		})
		if err != nil {
			return applied, fmt.Errorf("executing migration %s: %w", name, err)
		}
		if committed {
			applied = append(applied, name)
		}
	}

	return applied, nil
}

// runInTx runs fn in a transaction. It commits when fn reports true and rolls back
// when fn reports false or fails.
func runInTx(ctx context.Context, pool MigrationPool, fn func(pgx.Tx) (bool, error)) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	commit, err := fn(tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("executing SQL: %w", err)
	}
	if !commit {
		return tx.Rollback(ctx)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
