package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAlreadyExists is returned when a record with the same identity is already stored.
	ErrAlreadyExists = errors.New("persistence: already exists")
	// ErrConcurrentModification is returned when a document kept changing underneath
	// an update and the retry budget ran out.
	ErrConcurrentModification = errors.New("persistence: concurrent modification")
)

// StorageReadError reports a stored value that could not be decoded. Stores
// recover from it by treating the value as empty.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("persistence: malformed value at %s: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error {
	return e.Err
}
