package sqlitedb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// InMemory is the path of a private in-memory database.
const InMemory = ":memory:"

// Options configures a connection at open time.
type Options struct {
	// EnableWAL turns on write-ahead log journaling. WAL lets readers
	// and one writer work simultaneously.
	EnableWAL bool

	// BusyTimeoutMs bounds how long an operation waits for another
	// connection's lock before failing.
	BusyTimeoutMs int

	// EnableForeignKeys enforces referential integrity. SQLite ships
	// with this off; it is on by default here.
	EnableForeignKeys bool

	// ReadOnly opens the database without write access.
	ReadOnly bool

	// CreateIfNotExists allows creating the database file.
	CreateIfNotExists bool

	// ExtendedResultCodes requests fine-grained error codes. The pure Go
	// driver always reports extended codes, so disabling this has no
	// effect; error classification masks down to base codes either way.
	ExtendedResultCodes bool
}

// DefaultOptions returns the recommended connection options.
func DefaultOptions() Options {
	return Options{
		EnableWAL:           true,
		BusyTimeoutMs:       5000,
		EnableForeignKeys:   true,
		CreateIfNotExists:   true,
		ExtendedResultCodes: true,
	}
}

// Conn is a single SQLite connection. The underlying pool is pinned to
// one connection so transaction, savepoint and last-insert-id state stay
// coherent. Not safe for concurrent use without external synchronisation.
type Conn struct {
	db   *sql.DB
	path string

	inTx bool

	lastInsertID int64
	changes      int64
	totalChanges int64
}

// Open opens (and if permitted, creates) the database at path.
// A nil opts uses DefaultOptions. Use InMemory as the path for a fresh
// in-memory database.
func Open(path string, opts *Options) (*Conn, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}

	db, err := sql.Open("sqlite", buildDSN(path, o))
	if err != nil {
		return nil, &ConnectionError{Path: path, Err: err}
	}

	// One writer, one connection. SQLite transaction state is
	// per-connection, so the pool must never hand out a second one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &ConnectionError{Path: path, Err: err}
	}

	c := &Conn{db: db, path: path}

	if o.EnableForeignKeys {
		if err := c.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, &ConnectionError{Path: path, Err: err}
		}
	}

	return c, nil
}

// OpenInMemory opens a fresh in-memory database, handy for tests.
func OpenInMemory(opts *Options) (*Conn, error) {
	return Open(InMemory, opts)
}

// buildDSN assembles the driver DSN with open-time pragmas.
func buildDSN(path string, o Options) string {
	params := make([]string, 0, 4)

	switch {
	case o.ReadOnly:
		params = append(params, "mode=ro")
	case !o.CreateIfNotExists:
		params = append(params, "mode=rw")
	}

	if o.BusyTimeoutMs > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", o.BusyTimeoutMs))
	}
	if o.EnableWAL {
		params = append(params, "_pragma=journal_mode(WAL)")
	}

	dsn := "file:" + path
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}
	return dsn
}

// Close closes the connection. Any statements still outstanding on it are
// finalised; this is a safety net, not a normal-path operation.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return &ConnectionError{Path: c.path, Err: err}
	}
	c.db = nil
	return nil
}

// Path returns the database path given at open time.
func (c *Conn) Path() string { return c.path }

// DB exposes the underlying database handle for advanced use.
func (c *Conn) DB() *sql.DB { return c.db }

// Exec runs a statement that produces no rows. Arguments bind to `?`
// placeholders in order.
func (c *Conn) Exec(query string, args ...any) error {
	res, err := c.db.Exec(query, args...)
	if err != nil {
		return translateQueryErr(query, err)
	}
	c.recordResult(res)
	return nil
}

// ExecScript runs multiple semicolon-separated statements, e.g. a
// migration script.
func (c *Conn) ExecScript(script string) error {
	return c.Exec(script)
}

// recordResult captures last-insert-id and changed-row bookkeeping from a
// write. Reads leave the counters untouched.
func (c *Conn) recordResult(res sql.Result) {
	if id, err := res.LastInsertId(); err == nil {
		c.lastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		c.changes = n
		c.totalChanges += n
	}
}

// LastInsertRowID returns the rowid of the most recent successful insert
// on this connection.
func (c *Conn) LastInsertRowID() int64 { return c.lastInsertID }

// Changes returns the number of rows changed by the most recent write.
func (c *Conn) Changes() int64 { return c.changes }

// TotalChanges returns the number of rows changed since the connection
// was opened.
func (c *Conn) TotalChanges() int64 { return c.totalChanges }

// TableExists reports whether a table of the given name exists.
func (c *Conn) TableExists(name string) (bool, error) {
	const query = "SELECT 1 FROM sqlite_master WHERE type='table' AND name=?"
	var one int
	err := c.db.QueryRow(query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, translateQueryErr(query, err)
	}
	return true, nil
}

// quoteIdent quotes an SQL identifier, doubling any embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
