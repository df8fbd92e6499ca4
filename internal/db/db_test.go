package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_tags.sql", "001_initial.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0644))
	}

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_initial.sql", filepath.Base(files[0]))
	assert.Equal(t, "002_tags.sql", filepath.Base(files[1]))
}

func TestMigrationFilesEmptyDir(t *testing.T) {
	_, err := MigrationFiles(t.TempDir())
	assert.Error(t, err)
}

func TestShippedMigrationsAreFound(t *testing.T) {
	files, err := MigrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.Equal(t, "001_initial.sql", filepath.Base(files[0]))
}

// Runs against a real database when ADVISOR_TEST_DATABASE_URL is set.
func TestMigrateIsRepeatable(t *testing.T) {
	url := os.Getenv("ADVISOR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ADVISOR_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	dir := filepath.Join("..", "..", "migrations")
	_, err = Migrate(ctx, pool, dir)
	require.NoError(t, err)
	_, err = Migrate(ctx, pool, dir)
	require.NoError(t, err)
}
