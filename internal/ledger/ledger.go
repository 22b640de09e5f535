// Package ledger keeps a local record of review sessions created by this
// job, so operators can find a session's URL after the run without digging
// through the platform UI. The ledger is advisory: a failed write never
// fails the run.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS review_runs (
  id TEXT PRIMARY KEY,
  session_name TEXT NOT NULL,
  dataset_name TEXT NOT NULL,
  session_url TEXT,
  experiment_id TEXT NOT NULL,
  trace_count INTEGER NOT NULL,
  reviewers TEXT,
  notified INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_runs_created_at ON review_runs(created_at DESC);
`

// Ledger stores review runs in a local SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts a completed run.
func (l *Ledger) Record(ctx context.Context, run *domain.ReviewRun) error {
	notified := 0
	if run.Notified {
		notified = 1
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO review_runs
  (id, session_name, dataset_name, session_url, experiment_id, trace_count, reviewers, notified, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.SessionName,
		run.DatasetName,
		run.SessionURL,
		run.ExperimentID,
		run.TraceCount,
		strings.Join(run.Reviewers, ","),
		notified,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}

// List returns the most recent runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]domain.ReviewRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT id, session_name, dataset_name, session_url, experiment_id, trace_count, reviewers, notified, created_at
FROM review_runs
ORDER BY created_at DESC, id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ReviewRun
	for rows.Next() {
		var (
			run       domain.ReviewRun
			id        string
			url       sql.NullString
			reviewers sql.NullString
			notified  int
			createdAt int64
		)
		if err := rows.Scan(&id, &run.SessionName, &run.DatasetName, &url, &run.ExperimentID,
			&run.TraceCount, &reviewers, &notified, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		run.ID = parsed
		run.SessionURL = url.String
		if reviewers.String != "" {
			run.Reviewers = strings.Split(reviewers.String, ",")
		}
		run.Notified = notified != 0
		run.CreatedAt = time.Unix(createdAt, 0)

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
