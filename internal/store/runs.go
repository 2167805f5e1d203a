package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Run is one stored harness run.
type Run struct {
	ID         string          `json:"id"`
	Seq        int64           `json:"seq"`
	Scenario   string          `json:"scenario"`
	SourcePath string          `json:"source_path,omitempty"`
	Pass       bool            `json:"pass"`
	Result     json.RawMessage `json:"result"` // canonical JSON of the harness result
}

// WriteRun appends a run. An empty ID is filled from the store's
// generator; Seq is always assigned by the store and is one more than the
// highest stored seq. Returns the run as stored.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.Scenario == "" {
		return Run{}, fmt.Errorf("write run: scenario is required")
	}
	if !json.Valid(run.Result) {
		return Run{}, fmt.Errorf("write run: result is not valid JSON")
	}
	if run.ID == "" {
		run.ID = s.idGen.Generate()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs (id, seq, scenario, source_path, pass, result)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM runs
		RETURNING seq
	`,
		run.ID,
		run.Scenario,
		run.SourcePath,
		run.Pass,
		string(run.Result),
	).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

// ReadRun retrieves a run by id. Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, scenario, source_path, pass, result
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns runs ordered by seq ASC, id ASC. A non-empty scenario
// filters by scenario name; limit > 0 keeps only the most recent runs.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, scenario string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, scenario, source_path, pass, result FROM (
			SELECT id, seq, scenario, source_path, pass, result
			FROM runs
			WHERE ? = '' OR scenario = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, scenario, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run    Run
		result string
	)
	if err := row.Scan(&run.ID, &run.Seq, &run.Scenario, &run.SourcePath, &run.Pass, &result); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Result = json.RawMessage(result)
	return run, nil
}
