// Package model defines shared data structures.
package model

import "time"

// Config defines drill settings.
type Config struct {
	Mode         string `validate:"oneof=single multi"`
	Repetitions  int    `validate:"min=1"`
	Lang         string `validate:"required"`
	AutoSpeak    bool
	Placeholder  string        `validate:"required"`
	AdvanceDelay time.Duration `validate:"min=0"`
	ClearDelay   time.Duration `validate:"min=0"`
}

// HistoryConfig defines filters for the history report.
type HistoryConfig struct {
	Mode  string
	Lang  string
	Since *time.Time
	Last  int
}

// RunStats captures a completed drill.
type RunStats struct {
	RowID      int64
	RunID      string
	StartedAt  time.Time
	EndedAt    time.Time
	Mode       string
	Lang       string
	Segments   int
	Target     int
	Matches    int
	Mistakes   int
	DurationMs int64
}
