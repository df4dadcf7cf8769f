package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/storage"
)

// fixed width so that text ordering matches time ordering
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func (s *Store) SaveRun(ctx context.Context, run models.Run) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks,
			input, result
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, formatTimestamp(run.CreatedAt), formatTimestamp(run.Horizon.Start), formatTimestamp(run.Horizon.End), run.InputHash,
		run.Stats.Items, run.Stats.Placed, run.Stats.Partial, run.Stats.Unscheduled, run.Stats.Bumps, run.Stats.Chunks,
		string(run.Input), string(run.Result),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (models.Run, error) {
	if s.db == nil {
		return models.Run{}, fmt.Errorf("storage not loaded")
	}

	var input, result string
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks,
			input, result
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row, &input, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	run.Input = []byte(input)
	run.Result = []byte(result)
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks
		FROM runs
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
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

func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads the summary columns followed by any extra destinations
func scanRun(row scanner, extra ...any) (models.Run, error) {
	var run models.Run
	var createdAt, start, end string
	dest := []any{
		&run.ID, &createdAt, &start, &end, &run.InputHash,
		&run.Stats.Items, &run.Stats.Placed, &run.Stats.Partial, &run.Stats.Unscheduled, &run.Stats.Bumps, &run.Stats.Chunks,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Run{}, err
	}

	var err error
	if run.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Run{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if run.Horizon.Start, err = parseTimestamp(start); err != nil {
		return models.Run{}, fmt.Errorf("invalid horizon_start %q: %w", start, err)
	}
	if run.Horizon.End, err = parseTimestamp(end); err != nil {
		return models.Run{}, fmt.Errorf("invalid horizon_end %q: %w", end, err)
	}
	return run, nil
}
