package repositories

import "errors"

var (
	// ErrNotFound is returned when no document matches
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects an insert
	ErrDuplicate = errors.New("duplicate document")
	// ErrStatusConflict is returned when a compare-and-set update matched nothing
	// because the document changed since it was read
	ErrStatusConflict = errors.New("document changed concurrently")
)
