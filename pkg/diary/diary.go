// Package diary records validation run history in the shared SQLite store.
// Every CLI validation can append a run summary; `diary list` and
// `diary show` read them back.
package diary

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/db"
	"github.com/jingkaihe/skillspec/pkg/db/migrations"
	"github.com/jingkaihe/skillspec/pkg/validator"
)

// Entry is one recorded validation run.
type Entry struct {
	ID         string    `json:"id"`
	Skill      string    `json:"skill"`
	Version    string    `json:"version,omitempty"`
	Source     string    `json:"source,omitempty"`
	Mode       string    `json:"mode"`
	Verdict    string    `json:"verdict"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Blocking   int       `json:"blocking"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary aggregates the recorded runs of one skill.
type Summary struct {
	Skill       string    `json:"skill"`
	Runs        int       `json:"runs"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	LastVerdict string    `json:"last_verdict,omitempty"`
	LastRunAt   time.Time `json:"last_run_at"`
}

// Store reads and writes validation run history.
type Store struct {
	db *sqlx.DB
}

// Open opens the diary store at dbPath, running pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(sqlDB)
	if err := runner.Run(ctx, migrations.All()); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to migrate diary store")
	}

	return &Store{db: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a validation run to the diary and returns the stored entry.
func (s *Store) Record(ctx context.Context, rep *validator.Report) (Entry, error) {
	entry := Entry{
		ID:         rep.RunID,
		Skill:      rep.Skill,
		Version:    rep.Version,
		Source:     rep.Source,
		Mode:       string(rep.Mode),
		Verdict:    rep.Verdict,
		Errors:     rep.Errors,
		Warnings:   rep.Warnings,
		Blocking:   rep.Blocking,
		DurationMS: rep.Duration.Milliseconds(),
		CreatedAt:  rep.StartedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO validation_runs (
			id, skill, version, source, mode, verdict,
			errors, warnings, blocking, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Skill, entry.Version, entry.Source, entry.Mode, entry.Verdict,
		entry.Errors, entry.Warnings, entry.Blocking, entry.DurationMS,
		formatTime(entry.CreatedAt))
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to record validation run")
	}
	return entry, nil
}

// List returns recorded runs, newest first. An empty skill matches every
// skill; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, skill string, limit int) ([]Entry, error) {
	query := selectColumns + " FROM validation_runs"
	var args []any
	if skill != "" {
		query += " WHERE skill = ?"
		args = append(args, skill)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list validation runs")
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Get returns the run with the given id, or nil when not found.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, selectColumns+" FROM validation_runs WHERE id = ?", runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load validation run %s", runID)
	}

	entry, err := row.toEntry()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Summarize aggregates every recorded run of a skill.
func (s *Store) Summarize(ctx context.Context, skill string) (*Summary, error) {
	summary := &Summary{Skill: skill}

	err := s.db.GetContext(ctx, &summary.Runs,
		"SELECT COUNT(*) FROM validation_runs WHERE skill = ?", skill)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to summarize runs for %s", skill)
	}
	if summary.Runs == 0 {
		return summary, nil
	}

	err = s.db.GetContext(ctx, &summary.Failed,
		"SELECT COUNT(*) FROM validation_runs WHERE skill = ? AND verdict = ?",
		skill, validator.VerdictFail)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count failed runs for %s", skill)
	}
	summary.Passed = summary.Runs - summary.Failed

	var last runRow
	err = s.db.GetContext(ctx, &last,
		selectColumns+" FROM validation_runs WHERE skill = ? ORDER BY created_at DESC, id LIMIT 1", skill)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load last run for %s", skill)
	}
	entry, err := last.toEntry()
	if err != nil {
		return nil, err
	}
	summary.LastVerdict = entry.Verdict
	summary.LastRunAt = entry.CreatedAt

	return summary, nil
}

// Prune deletes runs recorded before the cutoff and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM validation_runs WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune validation runs")
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pruned runs")
	}
	return pruned, nil
}

const selectColumns = `SELECT id, skill, version, source, mode, verdict,
	errors, warnings, blocking, duration_ms, created_at`

// runRow mirrors the validation_runs table. Timestamps are stored as UTC
// RFC3339 at second precision so string ordering matches time ordering.
type runRow struct {
	ID         string `db:"id"`
	Skill      string `db:"skill"`
	Version    string `db:"version"`
	Source     string `db:"source"`
	Mode       string `db:"mode"`
	Verdict    string `db:"verdict"`
	Errors     int    `db:"errors"`
	Warnings   int    `db:"warnings"`
	Blocking   int    `db:"blocking"`
	DurationMS int64  `db:"duration_ms"`
	CreatedAt  string `db:"created_at"`
}

func (r runRow) toEntry() (Entry, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "invalid created_at for run %s", r.ID)
	}
	return Entry{
		ID:         r.ID,
		Skill:      r.Skill,
		Version:    r.Version,
		Source:     r.Source,
		Mode:       r.Mode,
		Verdict:    r.Verdict,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		Blocking:   r.Blocking,
		DurationMS: r.DurationMS,
		CreatedAt:  createdAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
