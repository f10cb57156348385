package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/studio-booking/internal/kvstore"
	"github.com/example/studio-booking/internal/logging"
	"github.com/example/studio-booking/internal/persistence/docstore"
)

// StorageHarness pairs a kv store with the document repositories over it.
type StorageHarness struct {
	Store   kvstore.Store
	Storage *docstore.Storage
}

// NewSQLiteHarness opens a migrated SQLite store in a temporary directory.
// It is closed when the test finishes.
func NewSQLiteHarness(tb testing.TB) *StorageHarness {
	tb.Helper()

	store, err := kvstore.Open(context.Background(), kvstore.Options{
		Driver:            kvstore.DriverSQLite,
		SQLiteDSN:         filepath.Join(tb.TempDir(), "studio.db"),
		SQLiteBusyTimeout: time.Second,
		SQLiteJournalMode: "WAL",
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	return newHarness(tb, store)
}

// NewMemoryHarness is NewSQLiteHarness without a database.
func NewMemoryHarness(tb testing.TB) *StorageHarness {
	tb.Helper()
	return newHarness(tb, kvstore.NewMemoryStore())
}

func newHarness(tb testing.TB, store kvstore.Store) *StorageHarness {
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return &StorageHarness{
		Store:   store,
		Storage: docstore.New(store, logging.Discard()),
	}
}
