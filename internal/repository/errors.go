package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("already exists")
	// ErrMissingReference is returned when a foreign key target does not exist.
	ErrMissingReference = errors.New("referenced row does not exist")
)
