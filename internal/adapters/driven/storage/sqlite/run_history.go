package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// runHistoryStore implements driven.RunHistoryStore.
type runHistoryStore struct {
	store *Store
}

var _ driven.RunHistoryStore = (*runHistoryStore)(nil)

// SaveRun appends one run. The report is stored as JSON.
func (s *runHistoryStore) SaveRun(ctx context.Context, run domain.IndexRun) error {
	var report sql.NullString
	if run.Report != nil {
		data, err := json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("marshalling run report: %w", err)
		}
		report = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_runs (run_trigger, started_at, ended_at, skipped, error, report)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(run.Trigger), run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano), boolToInt(run.Skipped), run.Error, report)
	if err != nil {
		return fmt.Errorf("saving index run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, oldest first.
func (s *runHistoryStore) RecentRuns(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_trigger, started_at, ended_at, skipped, error, report
		FROM index_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IndexRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index runs: %w", err)
	}

	// Newest first from the query; callers expect oldest first.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (domain.IndexRun, error) {
	var (
		run            domain.IndexRun
		trigger        string
		started, ended string
		skipped        int
		report         sql.NullString
	)
	if err := rows.Scan(&trigger, &started, &ended, &skipped, &run.Error, &report); err != nil {
		return run, fmt.Errorf("scanning index run: %w", err)
	}

	run.Trigger = domain.Trigger(trigger)
	run.Skipped = skipped != 0
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.EndedAt, _ = time.Parse(time.RFC3339Nano, ended)

	if report.Valid {
		var r domain.IndexReport
		if err := json.Unmarshal([]byte(report.String), &r); err != nil {
			return run, fmt.Errorf("unmarshalling run report: %w", err)
		}
		run.Report = &r
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
