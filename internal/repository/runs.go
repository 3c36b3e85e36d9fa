// Package repository persists the per-run audit trail: what text went into
// the model, what came back, and how the run ended. The live extraction
// result itself is never stored; it dies with the run.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	status      TEXT NOT NULL,
	clean_text  TEXT,
	raw_reply   TEXT,
	warnings    TEXT,
	error       TEXT
);`

// RunLog records extraction runs in SQLite.
type RunLog struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*RunLog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init run log schema: %w", err)
	}
	return &RunLog{db: db, logger: logger}, nil
}

func (r *RunLog) Close() error { return r.db.Close() }

func (r *RunLog) Start(ctx context.Context, runID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, created_at, updated_at, status) VALUES (?, ?, ?, ?)`,
		runID, now, now, string(constants.RunStatusRunning))
	return err
}

// RecordText keeps the cleaned input and raw reply alongside the run for
// manual inspection. Stored as-is, not reprocessed.
func (r *RunLog) RecordText(ctx context.Context, runID, cleanText, rawReply string) error {
	return r.update(ctx, runID,
		`UPDATE extraction_runs SET clean_text = ?, raw_reply = ?, updated_at = ? WHERE id = ?`,
		cleanText, rawReply)
}

func (r *RunLog) Finish(ctx context.Context, runID string, status constants.RunStatus, warnings []string, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	return r.update(ctx, runID,
		`UPDATE extraction_runs SET status = ?, warnings = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), strings.Join(warnings, "\n"), errMsg)
}

// update appends the timestamp and id to args so callers list only their own
// columns.
func (r *RunLog) update(ctx context.Context, runID, query string, args ...any) error {
	args = append(args, time.Now().UTC().Format(time.RFC3339), runID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// Run is one audit row.
type Run struct {
	ID        string
	CreatedAt string
	UpdatedAt string
	Status    constants.RunStatus
	CleanText string
	RawReply  string
	Warnings  []string
	Error     string
}

func (r *RunLog) Get(ctx context.Context, runID string) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, status,
		        COALESCE(clean_text, ''), COALESCE(raw_reply, ''),
		        COALESCE(warnings, ''), COALESCE(error, '')
		 FROM extraction_runs WHERE id = ?`, runID)

	var run Run
	var status, warnings string
	if err := row.Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt, &status,
		&run.CleanText, &run.RawReply, &warnings, &run.Error); err != nil {
		return nil, err
	}
	run.Status = constants.RunStatus(status)
	if warnings != "" {
		run.Warnings = strings.Split(warnings, "\n")
	}
	return &run, nil
}
