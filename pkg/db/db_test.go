package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.Get(&journalMode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", journalMode)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Run("with SKILLSPEC_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLSPEC_BASE_PATH", "/custom/path")
		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/custom/path", "storage.db"), path)
	})

	t.Run("without SKILLSPEC_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLSPEC_BASE_PATH", "")
		path, err := DefaultPath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".skillspec", "storage.db"), path)
	})
}

func TestMigrationRunner(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20260820100000,
			Description: "Create runs table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE runs (id TEXT PRIMARY KEY)")
				return err
			},
		},
		{
			Version:     20260820100001,
			Description: "Add verdict column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE runs ADD COLUMN verdict TEXT")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='runs'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.True(t, tableExists)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20260820100000, 20260820100001}, versions)
}

func TestMigrationRunnerIdempotent(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20260820100000,
			Description: "Create runs table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE runs (id TEXT PRIMARY KEY)")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))
	require.NoError(t, runner.Run(context.Background(), migrations))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, count)
}

func TestMigrationRunnerOutOfOrder(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	// The runner sorts by timestamp before applying.
	migrations := []Migration{
		{
			Version:     20260820100001,
			Description: "Add verdict column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE runs ADD COLUMN verdict TEXT")
				return err
			},
		},
		{
			Version:     20260820100000,
			Description: "Create runs table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE runs (id TEXT PRIMARY KEY)")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20260820100000, 20260820100001}, versions)
}

func TestMigrationRunnerRollback(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20260820100000,
			Description: "Create runs table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE runs (id TEXT PRIMARY KEY)")
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP TABLE runs")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background(), migrations))

	require.NoError(t, runner.Rollback(context.Background(), migrations))

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='runs'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.False(t, tableExists)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)
}
