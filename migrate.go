package sqlitedb

import (
	"errors"
	"fmt"
	"sort"
)

// migrationTable is the bookkeeping table recording applied versions.
// A row's existence is the sole source of truth for "applied". The table
// is created lazily and never dropped.
const migrationTable = "__migrations"

const createMigrationTable = `
CREATE TABLE IF NOT EXISTS __migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
)`

// Migration is one versioned, described schema change. Up applies it;
// Down, when present, reverses it. Versions are positive and unique
// within a Migrator.
type Migration struct {
	Version     int
	Description string
	Up          func(*Conn) error
	Down        func(*Conn) error
}

// Migrator maintains an ordered, versioned set of migrations and applies
// or rolls them back against a connection, tracking applied state in the
// bookkeeping table. The set is owned in memory for the process lifetime;
// registered migrations are immutable.
type Migrator struct {
	migrations map[int]Migration
}

// NewMigrator returns an empty migration set.
func NewMigrator() *Migrator {
	return &Migrator{migrations: make(map[int]Migration)}
}

// Add registers a migration without rollback support.
func (m *Migrator) Add(version int, description string, up func(*Conn) error) error {
	return m.AddMigration(Migration{Version: version, Description: description, Up: up})
}

// AddWithDown registers a migration with rollback support.
func (m *Migrator) AddWithDown(version int, description string, up, down func(*Conn) error) error {
	return m.AddMigration(Migration{Version: version, Description: description, Up: up, Down: down})
}

// AddMigration registers a migration. Non-positive and duplicate versions
// are rejected.
func (m *Migrator) AddMigration(mig Migration) error {
	if mig.Version <= 0 {
		return &MigrationError{Version: mig.Version, Err: errors.New("version must be positive")}
	}
	if _, ok := m.migrations[mig.Version]; ok {
		return &MigrationError{Version: mig.Version, Err: errors.New("duplicate version")}
	}
	if mig.Up == nil {
		return &MigrationError{Version: mig.Version, Err: errors.New("missing up procedure")}
	}
	m.migrations[mig.Version] = mig
	return nil
}

// versions returns all registered versions in ascending order.
func (m *Migrator) versions() []int {
	vs := make([]int, 0, len(m.migrations))
	for v := range m.migrations {
		vs = append(vs, v)
	}
	sort.Ints(vs)
	return vs
}

// ensureTable creates the bookkeeping table if needed. Idempotent.
func (m *Migrator) ensureTable(conn *Conn) error {
	if err := conn.Exec(createMigrationTable); err != nil {
		return fmt.Errorf("creating %s table: %w", migrationTable, err)
	}
	return nil
}

// CurrentVersion returns the highest applied version, or 0 if none.
func (m *Migrator) CurrentVersion(conn *Conn) (int, error) {
	if err := m.ensureTable(conn); err != nil {
		return 0, err
	}

	stmt, err := conn.Prepare("SELECT MAX(version) FROM __migrations")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	ok, err := stmt.Step()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	v, present := stmt.ColumnNullInt64(0)
	if !present {
		return 0, nil
	}
	return int(v), nil
}

// LatestVersion returns the highest registered version, or 0 if none.
func (m *Migrator) LatestVersion() int {
	latest := 0
	for v := range m.migrations {
		if v > latest {
			latest = v
		}
	}
	return latest
}

// Pending returns the registered migrations not yet applied, ascending.
func (m *Migrator) Pending(conn *Conn) ([]Migration, error) {
	current, err := m.CurrentVersion(conn)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, v := range m.versions() {
		if v > current {
			pending = append(pending, m.migrations[v])
		}
	}
	return pending, nil
}

// IsUpToDate reports whether every registered migration has been applied.
func (m *Migrator) IsUpToDate(conn *Conn) (bool, error) {
	current, err := m.CurrentVersion(conn)
	if err != nil {
		return false, err
	}
	return current >= m.LatestVersion(), nil
}

// Apply applies all pending migrations.
func (m *Migrator) Apply(conn *Conn) error {
	return m.ApplyTo(conn, m.LatestVersion())
}

// ApplyTo applies pending migrations up to and including target, each in
// its own transaction. If one fails it is rolled back, earlier units stay
// committed, and no further units are attempted. Per-unit transactions
// leave the database at a consistent, well-known intermediate version on
// failure instead of discarding the whole batch.
func (m *Migrator) ApplyTo(conn *Conn, target int) error {
	current, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}

	for _, v := range m.versions() {
		if v <= current || v > target {
			continue
		}
		if err := m.applyOne(conn, m.migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) applyOne(conn *Conn, mig Migration) error {
	tx, err := conn.Begin(TxDeferred)
	if err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	defer tx.Close()

	if err := mig.Up(conn); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	if err := conn.Exec(
		"INSERT INTO __migrations (version, description) VALUES (?, ?)",
		mig.Version, mig.Description,
	); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	return nil
}

// RollbackTo rolls back applied migrations above target, highest first,
// each in its own transaction. A unit without a down procedure halts the
// rollback; units already rolled back stay rolled back. No-op when target
// is at or above the current version.
func (m *Migrator) RollbackTo(conn *Conn, target int) error {
	current, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}
	if target >= current {
		return nil
	}

	vs := m.versions()
	for i := len(vs) - 1; i >= 0; i-- {
		v := vs[i]
		if v <= target || v > current {
			continue
		}
		if err := m.rollbackOne(conn, m.migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) rollbackOne(conn *Conn, mig Migration) error {
	if mig.Down == nil {
		return &MigrationError{Version: mig.Version, Err: errors.New("no rollback available")}
	}

	tx, err := conn.Begin(TxDeferred)
	if err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	defer tx.Close()

	if err := mig.Down(conn); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	if err := conn.Exec("DELETE FROM __migrations WHERE version = ?", mig.Version); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &MigrationError{Version: mig.Version, Err: err}
	}
	return nil
}
