package sqlitedb

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// TxType selects the lock-acquisition strategy of BEGIN. It affects only
// how locks are taken, not the transaction state machine.
type TxType int

const (
	// TxDeferred acquires locks on first access (the default).
	TxDeferred TxType = iota
	// TxImmediate acquires the write lock immediately.
	TxImmediate
	// TxExclusive acquires an exclusive lock.
	TxExclusive
)

func (t TxType) beginSQL() string {
	switch t {
	case TxImmediate:
		return "BEGIN IMMEDIATE TRANSACTION"
	case TxExclusive:
		return "BEGIN EXCLUSIVE TRANSACTION"
	default:
		return "BEGIN DEFERRED TRANSACTION"
	}
}

var errAlreadyEnded = errors.New("transaction already ended")

// Tx is a scope-bound transaction guard. It is created active and
// transitions to ended exactly once, via Commit or Rollback. Close is the
// implicit cleanup path: deferred at begin time, it rolls back anything
// left unfinished.
type Tx struct {
	conn   *Conn
	active bool
}

// Begin opens a transaction. SQLite rejects nested BEGIN, so exactly one
// transaction may be open per connection; express nesting as savepoints.
func (c *Conn) Begin(typ TxType) (*Tx, error) {
	if c.inTx {
		return nil, &TransactionError{Op: "begin", Err: errors.New("transaction already open on this connection")}
	}
	if err := c.Exec(typ.beginSQL()); err != nil {
		return nil, translateTxErr("begin", err)
	}
	c.inTx = true
	return &Tx{conn: c, active: true}, nil
}

// Active reports whether the transaction has not yet committed or rolled
// back.
func (t *Tx) Active() bool { return t.active }

// Commit commits the transaction. Committing an already ended transaction
// is a logic error. On a failed COMMIT the transaction stays active so
// the deferred Close still rolls it back.
func (t *Tx) Commit() error {
	if !t.active {
		return &TransactionError{Op: "commit", Err: errAlreadyEnded}
	}
	if err := t.conn.Exec("COMMIT"); err != nil {
		return translateTxErr("commit", err)
	}
	t.active = false
	t.conn.inTx = false
	return nil
}

// Rollback discards the transaction. Rolling back an already ended
// transaction is a logic error.
func (t *Tx) Rollback() error {
	if !t.active {
		return &TransactionError{Op: "rollback", Err: errAlreadyEnded}
	}
	if err := t.conn.Exec("ROLLBACK"); err != nil {
		return translateTxErr("rollback", err)
	}
	t.active = false
	t.conn.inTx = false
	return nil
}

// Close rolls back the transaction if it is still active. Errors on this
// implicit path are swallowed: cleanup must not fail past a scope exit.
// No-op after Commit or Rollback, so it is always safe to defer.
func (t *Tx) Close() {
	if !t.active {
		return
	}
	_ = t.conn.Exec("ROLLBACK")
	t.active = false
	t.conn.inTx = false
}

// Savepoint is a named rollback point inside an open transaction. Unlike
// a transaction, an unfinished savepoint is released (kept) on Close, not
// rolled back: savepoints guard optional sub-steps whose absence of
// explicit disposition means "keep".
type Savepoint struct {
	conn   *Conn
	name   string
	active bool
}

// Savepoint creates a savepoint within the transaction. An empty name is
// replaced with a generated unique one. Creating a savepoint on an ended
// transaction is a logic error.
func (t *Tx) Savepoint(name string) (*Savepoint, error) {
	if !t.active {
		return nil, &TransactionError{Op: "savepoint", Err: errors.New("transaction not active")}
	}
	if name == "" {
		name = "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if err := t.conn.Exec("SAVEPOINT " + quoteIdent(name)); err != nil {
		return nil, translateTxErr("savepoint "+name, err)
	}
	return &Savepoint{conn: t.conn, name: name, active: true}, nil
}

// Name returns the savepoint's name.
func (sp *Savepoint) Name() string { return sp.name }

// Active reports whether the savepoint has not yet been released or
// rolled back.
func (sp *Savepoint) Active() bool { return sp.active }

// Release commits the savepoint's effects into the enclosing transaction.
func (sp *Savepoint) Release() error {
	if !sp.active {
		return &TransactionError{Op: "release " + sp.name, Err: errAlreadyEnded}
	}
	if err := sp.conn.Exec("RELEASE SAVEPOINT " + quoteIdent(sp.name)); err != nil {
		return translateTxErr("release "+sp.name, err)
	}
	sp.active = false
	return nil
}

// Rollback discards the savepoint's effects. The engine keeps the
// savepoint slot after a rollback, so it is released immediately after to
// free it.
func (sp *Savepoint) Rollback() error {
	if !sp.active {
		return &TransactionError{Op: "rollback " + sp.name, Err: errAlreadyEnded}
	}
	if err := sp.conn.Exec("ROLLBACK TO SAVEPOINT " + quoteIdent(sp.name)); err != nil {
		return translateTxErr("rollback "+sp.name, err)
	}
	if err := sp.conn.Exec("RELEASE SAVEPOINT " + quoteIdent(sp.name)); err != nil {
		return translateTxErr("release "+sp.name, err)
	}
	sp.active = false
	return nil
}

// Close releases the savepoint if it is still active, keeping its
// effects. Errors on this implicit path are swallowed. Always safe to
// defer.
func (sp *Savepoint) Close() {
	if !sp.active {
		return
	}
	_ = sp.conn.Exec("RELEASE SAVEPOINT " + quoteIdent(sp.name))
	sp.active = false
}
