package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a connection pool to PostgreSQL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// MigrationFiles lists the .sql files in migrationsDir in the order they run.
func MigrationFiles(migrationsDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found in %s", migrationsDir)
	}
	sort.Strings(files)
	return files, nil
}

// Migrate runs every SQL migration file against the database. Migrations
// are written to be idempotent, so running them again is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) ([]string, error) {
	files, err := MigrationFiles(migrationsDir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read migration file: %w", err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return nil, fmt.Errorf("execute migration %s: %w", filepath.Base(file), err)
		}
	}
	return files, nil
}
