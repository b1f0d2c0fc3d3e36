package volumedb

import "errors"

var (
	// ErrNotFound is returned when the addressed volume id does not exist
	ErrNotFound = errors.New("volume not found")

	// ErrAlreadyExists is returned by Add when the volume id is already present
	ErrAlreadyExists = errors.New("volume already exists")

	// ErrClosed is returned for any operation on a handle after Close
	ErrClosed = errors.New("volume database handle is closed")

	// ErrUnavailable is returned when the backing file is missing,
	// unreadable, or not a valid volume database
	ErrUnavailable = errors.New("volume database is unavailable")

	// ErrBusy is returned when the lock-retry budget is exhausted
	// under contention
	ErrBusy = errors.New("volume database is busy")
)
