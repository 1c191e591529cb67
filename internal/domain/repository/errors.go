package repository

import "errors"

var (
	// ErrNotFound is returned when a row addressed by id or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
	// ErrReferenced is returned when a delete is blocked by rows that still point at the target.
	ErrReferenced = errors.New("still referenced")
)
