// Package kvstore provides a string keyed store of opaque values guarded by a
// per key version. Writers supply the version they read; a mismatch is
// reported as ErrVersionConflict so callers can re-read and retry.
package kvstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the key has never been written or was deleted.
	ErrNotFound = errors.New("kvstore: not found")
	// ErrVersionConflict is returned when the stored version differs from the expected one.
	ErrVersionConflict = errors.New("kvstore: version conflict")
	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("kvstore: closed")
)

// Entry is a stored value together with its version.
type Entry struct {
	Key       string
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the entry for key or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)
	// Put writes value when the stored version equals expectedVersion and
	// returns the new version. An expectedVersion of zero requires the key to
	// be absent.
	Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
