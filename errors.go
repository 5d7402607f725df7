package sqlitedb

import (
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ConnectionError reports a failure to open or close a database.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a statement compile, bind or execution failure.
// It carries the SQL text and the engine's result code (0 when the
// failure did not originate in the engine).
type QueryError struct {
	SQL  string
	Code int
	Err  error
}

func (e *QueryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("query error: %v (sqlite code %d): %s", e.Err, e.Code, e.SQL)
	}
	return fmt.Sprintf("query error: %v: %s", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ConstraintError reports a uniqueness, foreign key or check constraint
// violation. It is detected from the engine's base result code, ignoring
// any extended-code bits.
type ConstraintError struct {
	SQL  string
	Code int
	Err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %v (sqlite code %d)", e.Err, e.Code)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// TransactionError reports a begin/commit/rollback or savepoint failure,
// including the logic-error cases of acting on an already ended
// transaction or creating a savepoint outside a transaction.
type TransactionError struct {
	Op   string
	Code int
	Err  error
}

func (e *TransactionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("transaction error: %s: %v (sqlite code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("transaction error: %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// SchemaError aggregates all violations found by a Validator.
type SchemaError struct {
	Violations []ValidationError
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema validation failed with %d error(s):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Message)
	}
	return b.String()
}

// MigrationError reports a failure registering or running a migration.
// Version is the offending migration's version.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error at version %d: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// translateQueryErr maps an engine failure onto the error taxonomy.
// Constraint violations are recognised by masking the extended result
// code down to its base code.
func translateQueryErr(query string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return &ConstraintError{SQL: query, Code: code, Err: err}
		}
		return &QueryError{SQL: query, Code: code, Err: err}
	}
	return &QueryError{SQL: query, Err: err}
}

// translateTxErr wraps an underlying failure as a TransactionError,
// preserving the engine result code when present.
func translateTxErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return &TransactionError{Op: op, Code: se.Code(), Err: err}
	}
	return &TransactionError{Op: op, Err: err}
}
