package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between supported drivers.
type Dialect struct {
	Name       string
	DriverName string
	// Numbered placeholders ($1, $2) instead of ?.
	Numbered  bool
	ValueType string
}

var (
	// SQLite stores entries through modernc.org/sqlite.
	SQLite = Dialect{Name: "sqlite", DriverName: "sqlite", ValueType: "BLOB"}
	// Postgres stores entries through lib/pq.
	Postgres = Dialect{Name: "postgres", DriverName: "postgres", Numbered: true, ValueType: "BYTEA"}
)

// Rebind rewrites ? placeholders for dialects that number their parameters.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLConfig configures a SQL backed store.
type SQLConfig struct {
	Dialect Dialect
	DSN     string

	// SQLite only.
	BusyTimeout time.Duration
	JournalMode string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLStore persists entries in a single kv_entries table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL opens the database, applies pending schema migrations and returns the store.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("kvstore: %s DSN cannot be empty", cfg.Dialect.Name)
	}
	if cfg.Dialect.DriverName == "" {
		return nil, fmt.Errorf("kvstore: dialect is required")
	}

	if cfg.Dialect.Name == SQLite.Name {
		if err := createSQLiteFile(cfg.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(cfg.Dialect.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", cfg.Dialect.Name, err)
	}

	if isSQLiteMemory(cfg) {
		// Every connection to :memory: sees its own database.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: ping %s: %w", cfg.Dialect.Name, err)
	}

	if cfg.Dialect.Name == SQLite.Name {
		if err := configureSQLite(ctx, db, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}

	store := &SQLStore{db: db, dialect: cfg.Dialect, now: time.Now}
	if err := newMigrator(db, cfg.Dialect).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, key string) (Entry, error) {
	query := s.dialect.Rebind(`SELECT value, version, updated_at FROM kv_entries WHERE entry_key = ?`)

	var (
		entry     = Entry{Key: key}
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Value, &entry.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	entry.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return entry, nil
}

// Put implements Store.
func (s *SQLStore) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	if value == nil {
		value = []byte{}
	}
	updatedAt := s.now().UTC().UnixMilli()

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		query := s.dialect.Rebind(`INSERT INTO kv_entries (entry_key, value, version, updated_at)
			VALUES (?, ?, 1, ?) ON CONFLICT (entry_key) DO NOTHING`)
		result, err = s.db.ExecContext(ctx, query, key, value, updatedAt)
	} else {
		query := s.dialect.Rebind(`UPDATE kv_entries SET value = ?, version = version + 1, updated_at = ?
			WHERE entry_key = ? AND version = ?`)
		result, err = s.db.ExecContext(ctx, query, value, updatedAt, key, expectedVersion)
	}
	if err != nil {
		return 0, fmt.Errorf("kvstore: put %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("kvstore: put %s: %w", key, err)
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := s.dialect.Rebind(`DELETE FROM kv_entries WHERE entry_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isSQLiteMemory(cfg SQLConfig) bool {
	return cfg.Dialect.Name == SQLite.Name &&
		(cfg.DSN == ":memory:" || strings.Contains(cfg.DSN, "mode=memory"))
}

func createSQLiteFile(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("kvstore: create database directory %s: %w", dir, err)
	}
	return nil
}

func configureSQLite(ctx context.Context, db *sql.DB, cfg SQLConfig) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.JournalMode != "" && !isSQLiteMemory(cfg) {
		switch strings.ToUpper(cfg.JournalMode) {
		case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
		default:
			return fmt.Errorf("kvstore: invalid journal mode: %s", cfg.JournalMode)
		}
		pragmas = append(pragmas, "PRAGMA journal_mode = "+strings.ToUpper(cfg.JournalMode))
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("kvstore: %s: %w", pragma, err)
		}
	}
	return nil
}
