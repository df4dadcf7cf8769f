package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/storage"
)

func (s *Store) SaveRun(ctx context.Context, run models.Run) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks,
			input, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		run.ID, run.CreatedAt.UTC(), run.Horizon.Start.UTC(), run.Horizon.End.UTC(), run.InputHash,
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

	var run models.Run
	var input, result []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks,
			input, result
		FROM runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.CreatedAt, &run.Horizon.Start, &run.Horizon.End, &run.InputHash,
		&run.Stats.Items, &run.Stats.Placed, &run.Stats.Partial, &run.Stats.Unscheduled, &run.Stats.Bumps, &run.Stats.Chunks,
		&input, &result,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	run.Input = input
	run.Result = result
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	query := `
		SELECT id, created_at, horizon_start, horizon_end, input_hash,
			items, placed, partial, unscheduled, bumps, chunks
		FROM runs
		ORDER BY created_at DESC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		err := rows.Scan(
			&run.ID, &run.CreatedAt, &run.Horizon.Start, &run.Horizon.End, &run.InputHash,
			&run.Stats.Items, &run.Stats.Placed, &run.Stats.Partial, &run.Stats.Unscheduled, &run.Stats.Bumps, &run.Stats.Chunks,
		)
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

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, id)
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
