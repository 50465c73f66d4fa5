package store

import (
	"database/sql"
	"fmt"
	"time"
)

// timeFormat has fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run operations

// BeginRun inserts an open run and returns its id.
func (s *Store) BeginRun(source string, dryRun bool, startedAt time.Time) (int64, error) {
	query := `
		INSERT INTO runs (started_at, source, dry_run)
		VALUES (?, ?, ?)
	`

	result, err := s.db.Exec(query, startedAt.UTC().Format(timeFormat), source, dryRun)
	if err != nil {
		return 0, wrap(err, "failed to insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	return id, nil
}

// FinishRun closes a run. errMsg is empty for a run that completed.
func (s *Store) FinishRun(id int64, finishedAt time.Time, errMsg string) error {
	query := `UPDATE runs SET finished_at = ?, error = ? WHERE id = ?`

	res, err := s.db.Exec(query, finishedAt.UTC().Format(timeFormat), nullString(errMsg), id)
	if err != nil {
		return wrap(err, "failed to finish run %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(id int64) (*Run, error) {
	query := `
		SELECT id, started_at, finished_at, source, dry_run, error
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, wrap(err, "failed to get run %d", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, source, dry_run, error
		FROM runs
		ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt, errMsg sql.NullString

	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &run.Source, &run.DryRun, &errMsg); err != nil {
		return nil, err
	}

	var err error
	run.StartedAt, err = time.Parse(timeFormat, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", run.ID, err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = time.Parse(timeFormat, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for run %d: %w", run.ID, err)
		}
	}
	run.Error = errMsg.String

	return &run, nil
}

// Result operations

// InsertResult records the outcome of one package.
func (s *Store) InsertResult(r *Result) error {
	query := `
		INSERT INTO results
		(run_id, position, name, full_name, package_type, desired_state, action, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		r.RunID,
		r.Position,
		r.Name,
		r.FullName,
		r.PackageType,
		r.DesiredState,
		r.Action,
		r.Outcome,
		nullString(r.Error),
	)
	if err != nil {
		return wrap(err, "failed to insert result %d of run %d", r.Position, r.RunID)
	}

	return nil
}

// GetResults returns the results of a run in document order.
func (s *Store) GetResults(runID int64) ([]*Result, error) {
	query := `
		SELECT run_id, position, name, full_name, package_type, desired_state, action, outcome, error
		FROM results
		WHERE run_id = ?
		ORDER BY position
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrap(err, "failed to get results for run %d", runID)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var r Result
		var errMsg sql.NullString
		err := rows.Scan(
			&r.RunID,
			&r.Position,
			&r.Name,
			&r.FullName,
			&r.PackageType,
			&r.DesiredState,
			&r.Action,
			&r.Outcome,
			&errMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Error = errMsg.String
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// OutcomeCounts returns how many results of a run ended in each outcome.
func (s *Store) OutcomeCounts(runID int64) (map[string]int, error) {
	query := `
		SELECT outcome, COUNT(*)
		FROM results
		WHERE run_id = ?
		GROUP BY outcome
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrap(err, "failed to count results for run %d", runID)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = n
	}

	return counts, rows.Err()
}

// DeleteRunsBefore removes runs started before cutoff together with their
// results and returns how many runs were deleted.
func (s *Store) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, wrap(err, "failed to delete runs")
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
