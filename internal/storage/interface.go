package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/daylit-planner/internal/models"
)

var (
	ErrNotFound       = errors.New("run not found")
	ErrNotInitialized = errors.New("storage not initialized, run 'daylit-planner init' first")
)

// Provider archives scheduling runs
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Runs
	SaveRun(ctx context.Context, run models.Run) error
	GetRun(ctx context.Context, id string) (models.Run, error)
	// ListRuns returns the newest runs first without their input and result payloads.
	// A limit of zero or less returns every run.
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	DeleteRun(ctx context.Context, id string) error

	GetConfigPath() string
}
