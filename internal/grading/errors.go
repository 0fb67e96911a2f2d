package grading

import (
	"errors"
	"fmt"
)

// MarkError rejects a single offending mark. Item 10 is the bonus mark.
type MarkError struct {
	Item   int
	Reason string
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Item, e.Reason)
}

// NotFoundError names a missing reference (assignment, grader, team, ...).
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

var (
	// ErrWrongTeam rejects a submission from a grader outside the
	// assignment's bound team.
	ErrWrongTeam = errors.New("grader is not in the team assigned to this student")
	// ErrDuplicateAssignment rejects a second assignment for the same
	// student within one exam session.
	ErrDuplicateAssignment = errors.New("student already assigned in this exam session")
)

// IsValidation reports whether err should surface as a 400.
func IsValidation(err error) bool {
	var me *MarkError
	return errors.As(err, &me)
}

// IsNotFound reports whether err should surface as a 404.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err should surface as a 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrWrongTeam) || errors.Is(err, ErrDuplicateAssignment)
}
