package store

import "errors"

var (
	// ErrConnection is returned when a drive cannot be opened or its schema
	// cannot be created.
	ErrConnection = errors.New("drive connection failed")

	// ErrWrite is returned when an insert is rejected.
	ErrWrite = errors.New("fact write failed")

	// ErrNotFound is returned when a most-recent lookup matches no fact.
	ErrNotFound = errors.New("fact not found")

	// ErrClosed is returned by operations on a closed drive.
	ErrClosed = errors.New("drive closed")
)

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsWriteError returns true if err is or wraps ErrWrite.
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWrite)
}

// IsConnectionError returns true if err is or wraps ErrConnection.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}
