package services

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist or has
	// been soft deleted.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when the submission changed between
	// read and write. The caller should reload and retry the command.
	ErrConcurrentModification = errors.New("submission was modified by another request")
)
