package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type migration struct {
	Version     string
	Description string
	Statements  func(d Dialect) []string
}

var migrations = []migration{
	{
		Version:     "001",
		Description: "create kv_entries",
		Statements: func(d Dialect) []string {
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kv_entries (
					entry_key TEXT PRIMARY KEY,
					value %s NOT NULL,
					version BIGINT NOT NULL,
					updated_at BIGINT NOT NULL
				)`, d.ValueType),
			}
		},
	},
	{
		Version:     "002",
		Description: "index kv_entries by update time",
		Statements: func(Dialect) []string {
			return []string{
				`CREATE INDEX IF NOT EXISTS idx_kv_entries_updated_at ON kv_entries (updated_at)`,
			}
		},
	},
}

// migrator applies the embedded migrations in version order, recording each
// one in schema_migrations.
type migrator struct {
	db      *sql.DB
	dialect Dialect
}

func newMigrator(db *sql.DB, dialect Dialect) *migrator {
	return &migrator{db: db, dialect: dialect}
}

func (m *migrator) Run(ctx context.Context) error {
	if err := m.initializeVersionTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.execute(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

// AppliedVersions lists recorded migration versions in ascending order.
func (s *SQLStore) AppliedVersions(ctx context.Context) ([]string, error) {
	applied, err := newMigrator(s.db, s.dialect).appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(applied))
	for _, mig := range migrations {
		if applied[mig.Version] {
			versions = append(versions, mig.Version)
		}
	}
	return versions, nil
}

func (m *migrator) initializeVersionTable(ctx context.Context) error {
	createTableSQL := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL,
		execution_time_ms BIGINT
	)`
	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("kvstore: create schema_migrations table: %w", err)
	}
	return nil
}

func (m *migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("kvstore: list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("kvstore: scan applied migration: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *migrator) execute(ctx context.Context, mig migration) (err error) {
	started := time.Now()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: migration %s: begin transaction: %w", mig.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range mig.Statements(m.dialect) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("kvstore: migration %s (%s): statement %d: %w", mig.Version, mig.Description, i+1, err)
		}
	}

	record := m.dialect.Rebind(`INSERT INTO schema_migrations (version, applied_at, execution_time_ms) VALUES (?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, record, mig.Version, time.Now().UTC().Format(time.RFC3339), time.Since(started).Milliseconds()); err != nil {
		return fmt.Errorf("kvstore: migration %s: record: %w", mig.Version, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("kvstore: migration %s: commit: %w", mig.Version, err)
	}
	return nil
}
