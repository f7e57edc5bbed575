package drill

import (
	"errors"

	"github.com/verte-zerg/tuimemo/internal/segment"
)

var (
	// ErrEmptyInput is returned when the text has nothing to practice.
	ErrEmptyInput = segment.ErrEmptyInput

	// ErrInvalidRepetitionTarget is returned for non-positive or non-numeric targets.
	ErrInvalidRepetitionTarget = errors.New("repetition target must be a positive integer")

	// ErrIndexOutOfRange is returned when a segment index is outside the session.
	ErrIndexOutOfRange = errors.New("segment index out of range")

	// ErrNotRunning is returned for operations that need a running session.
	ErrNotRunning = errors.New("no running session")

	// ErrSessionRunning is returned when setup changes are made mid-session.
	ErrSessionRunning = errors.New("session already started")
)
