package store

import "errors"

// ErrNotFound is returned when a record doesn't exist or is not visible to
// the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint.
var ErrConflict = errors.New("conflict")

// Page selects a window of a listing.
type Page struct {
	Offset int
	Limit  int
}
