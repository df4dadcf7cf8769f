package constants

import "time"

const (
	AppName           = "daylit-planner"
	Version           = "v0.1.0"
	DefaultConfigPath = "~/.config/daylit-planner/config.yaml"
	DefaultStorePath  = "~/.config/daylit-planner/runs.db"

	// SchemaName is the Postgres schema holding the run archive
	SchemaName = "daylit_planner"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is accepted by the adapter in addition to RFC3339
	DateTimeFormat = "2006-01-02 15:04"

	// SlotGrid is the boundary every chunk start is rounded up to
	SlotGrid = 15 * time.Minute

	// DefaultIterationCeiling bounds the interval searches made for a single item
	DefaultIterationCeiling = 2000

	// MaxOccurrencesPerRule is a safety cap for open-ended recurrence rules
	MaxOccurrencesPerRule = 5000
)
