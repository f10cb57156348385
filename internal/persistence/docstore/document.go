package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/example/studio-booking/internal/kvstore"
	"github.com/example/studio-booking/internal/logging"
	"github.com/example/studio-booking/internal/persistence"
)

// DefaultMaxAttempts bounds how often an update re-runs after losing a version race.
const DefaultMaxAttempts = 8

// errUnchanged lets a mutation skip the write when it left the value as it was.
var errUnchanged = errors.New("docstore: unchanged")

// document is a JSON value stored under a single key.
type document[T any] struct {
	store       kvstore.Store
	key         string
	empty       func() T
	logger      *slog.Logger
	maxAttempts int
}

func newDocument[T any](store kvstore.Store, key string, empty func() T, logger *slog.Logger) document[T] {
	return document[T]{
		store:       store,
		key:         key,
		empty:       empty,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}
}

// load returns the decoded value and the version it was read at. Missing and
// malformed values both decode to the empty value.
func (d document[T]) load(ctx context.Context) (T, int64, error) {
	entry, err := d.store.Get(ctx, d.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return d.empty(), 0, nil
	}
	if err != nil {
		var zero T
		return zero, 0, err
	}

	value := d.empty()
	if trimmed := bytes.TrimSpace(entry.Value); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return value, entry.Version, nil
	}
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		readErr := &persistence.StorageReadError{Key: d.key, Err: err}
		logging.FromContextOr(ctx, d.logger).WarnContext(ctx, "discarding malformed stored value",
			"key", d.key,
			"version", entry.Version,
			logging.Err(readErr),
		)
		return d.empty(), entry.Version, nil
	}
	return value, entry.Version, nil
}

// update applies mutate to the current value and writes it back guarded by
// the version it was read at. A lost race re-reads and re-runs mutate.
// Errors returned by mutate abort the update without writing.
func (d document[T]) update(ctx context.Context, mutate func(*T) error) error {
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		value, version, err := d.load(ctx)
		if err != nil {
			return err
		}
		if err := mutate(&value); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}

		_, err = d.store.Put(ctx, d.key, raw, version)
		if errors.Is(err, kvstore.ErrVersionConflict) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		return err
	}
	return persistence.ErrConcurrentModification
}

// reset removes the stored value entirely.
func (d document[T]) reset(ctx context.Context) error {
	return d.store.Delete(ctx, d.key)
}
