package engine

import "errors"

var (
	// ErrNotFound is returned when the file or scan root does not exist.
	ErrNotFound = errors.New("path not found")
	// ErrIO is returned when metadata or content cannot be obtained.
	ErrIO = errors.New("i/o error")
)
