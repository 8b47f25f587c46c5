package resultstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps runs in a local database file. Times are stored as Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema, err := migrationsFS.ReadFile("migrations/001_runs.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, service_name, started_at, finished_at, passed, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID.String(), rec.ServiceName, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
		rec.Passed, rec.Failed, rec.Skipped)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, f := range rec.Failures {
		messages, err := json.Marshal(f.Messages)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, test_id, messages, non_critical) VALUES (?, ?, ?, ?)
		`, rec.RunID.String(), f.TestID, string(messages), f.NonCritical)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first, with their failures.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, service_name, started_at, finished_at, passed, failed, skipped
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec                   RunRecord
			runID                 string
			startedAt, finishedAt int64
		)
		if err := rows.Scan(&runID, &rec.ServiceName, &startedAt, &finishedAt,
			&rec.Passed, &rec.Failed, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rec.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("bad run ID %q: %w", runID, err)
		}
		rec.StartedAt = time.UnixMilli(startedAt).UTC()
		rec.FinishedAt = time.UnixMilli(finishedAt).UTC()
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Failures, err = s.failures(ctx, runs[i].RunID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) failures(ctx context.Context, runID uuid.UUID) ([]FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test_id, messages, non_critical FROM failures WHERE run_id = ? ORDER BY rowid
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []FailureRecord
	for rows.Next() {
		var (
			f        FailureRecord
			messages string
		)
		if err := rows.Scan(&f.TestID, &messages, &f.NonCritical); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		if err := json.Unmarshal([]byte(messages), &f.Messages); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
