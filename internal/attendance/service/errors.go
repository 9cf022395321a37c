package service

import "errors"

var (
	ErrInvalidBadgeID   = errors.New("badge id is required")
	ErrInvalidResetTime = errors.New("reset time must be HH:MM:SS")

	// ErrPersistence wraps a store failure during a scan.  The log is left
	// in its last committed state.
	ErrPersistence = errors.New("attendance log persistence failed")

	// ErrInternalInconsistency marks a decision-table branch that should be
	// unreachable, e.g. a log entry with an unrecognised status.
	ErrInternalInconsistency = errors.New("attendance state inconsistent")
)
