package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillspec/pkg/db"
	"github.com/pkg/errors"
)

// Migration20260820100000CreateValidationRuns creates the validation run
// history table used by the diary.
func Migration20260820100000CreateValidationRuns() db.Migration {
	return db.Migration{
		Version:     20260820100000,
		Description: "Create validation_runs table",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS validation_runs (
					id TEXT PRIMARY KEY,
					skill TEXT NOT NULL,
					version TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL DEFAULT '',
					mode TEXT NOT NULL,
					verdict TEXT NOT NULL,
					errors INTEGER NOT NULL DEFAULT 0,
					warnings INTEGER NOT NULL DEFAULT 0,
					blocking INTEGER NOT NULL DEFAULT 0,
					duration_ms INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				"CREATE INDEX IF NOT EXISTS idx_validation_runs_skill ON validation_runs(skill, created_at DESC)",
				"CREATE INDEX IF NOT EXISTS idx_validation_runs_created_at ON validation_runs(created_at DESC)",
			}

			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return errors.Wrap(err, "failed to create validation_runs table")
				}
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			drops := []string{
				"DROP INDEX IF EXISTS idx_validation_runs_created_at",
				"DROP INDEX IF EXISTS idx_validation_runs_skill",
				"DROP TABLE IF EXISTS validation_runs",
			}

			for _, drop := range drops {
				if _, err := tx.Exec(drop); err != nil {
					return errors.Wrap(err, "failed to drop validation_runs table")
				}
			}
			return nil
		},
	}
}
