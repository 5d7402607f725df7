// Package sqlitedb is a safety-oriented access layer over SQLite.
//
// It wraps modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, and layers the pieces an application needs beyond raw SQL:
//
//   - Conn: connection lifecycle with explicit open-time options (WAL,
//     busy timeout, foreign keys, read-only)
//   - Stmt: prepared statements with positional and named binding over the
//     closed SQLite value set (null, integer, real, text, blob)
//   - Tx / Savepoint: scope-bound transaction guards with guaranteed
//     finalisation via Close
//   - Migrator: versioned schema migrations tracked in a bookkeeping table
//   - Validator: declarative checks against the live schema catalog
//   - QueryBuilder / InsertBuilder: fluent SQL assembly helpers
//
// # Resource guards
//
// Transactions, savepoints and statements follow the same pattern: acquire,
// defer Close, use, explicitly finish. Close is the implicit cleanup path.
// It rolls back an unfinished transaction (or releases an unfinished
// savepoint) and swallows any error, so it is always safe in a defer:
//
//	tx, err := conn.Begin(sqlitedb.TxDeferred)
//	if err != nil {
//		return err
//	}
//	defer tx.Close()
//
//	// ... statements ...
//
//	return tx.Commit()
//
// Errors on the implicit path are deliberately unobservable; anything the
// caller should react to must go through the explicit Commit, Rollback or
// Release methods.
//
// # Concurrency
//
// The call model is single-threaded, synchronous and blocking. A Conn pins
// the pool to one underlying connection so transaction and savepoint state
// stays coherent; it is not safe for concurrent use without external
// synchronisation. Finish or close a statement's row iteration before
// issuing further operations on the same connection.
package sqlitedb
