package models

import (
	"errors"
	"fmt"
)

// Guard failures returned by submission and proceedings transitions.
// Callers match with errors.Is; none of these are retried internally.
var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrDuplicateReviewer    = errors.New("reviewer already assigned to submission")
	ErrCapacityExceeded     = errors.New("reviewer capacity exceeded")
	ErrConflictOfInterest   = errors.New("reviewer institution conflicts with an author")
	ErrInvalidReviewerState = errors.New("reviewer assignment is not in the expected state")
	ErrInsufficientReviews  = errors.New("decision requires at least one completed review")
	ErrValidation           = errors.New("validation failed")
)

func newTransitionError(op string, from, to SubmissionStatus) error {
	return fmt.Errorf("%w: %s: %s -> %s", ErrInvalidTransition, op, from, to)
}

func newProceedingsTransitionError(op string, from, to ProceedingsPhase) error {
	return fmt.Errorf("%w: %s: %s -> %s", ErrInvalidTransition, op, from, to)
}

func newValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
