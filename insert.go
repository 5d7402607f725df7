package sqlitedb

import (
	"errors"
	"fmt"
	"strings"
)

// InsertBuilder assembles a single-row INSERT.
//
//	id, err := sqlitedb.NewInsert(conn, "users").
//		Set("name", sqlitedb.Text("ada")).
//		Set("age", sqlitedb.Int64(36)).
//		Exec()
type InsertBuilder struct {
	conn    *Conn
	table   string
	columns []string
	values  []Value
}

// NewInsert starts an insert into a table.
func NewInsert(conn *Conn, table string) *InsertBuilder {
	return &InsertBuilder{conn: conn, table: table}
}

// Set adds a column-value pair.
func (b *InsertBuilder) Set(column string, v Value) *InsertBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, v)
	return b
}

// SQL returns the assembled statement text.
func (b *InsertBuilder) SQL() string {
	return b.sqlWithVerb("INSERT")
}

func (b *InsertBuilder) sqlWithVerb(verb string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", ")
	return fmt.Sprintf("%s INTO %s (%s) VALUES (%s)",
		verb, b.table, strings.Join(b.columns, ", "), placeholders)
}

// Exec runs the insert and returns the new rowid.
func (b *InsertBuilder) Exec() (int64, error) {
	return b.exec("INSERT")
}

// Upsert runs the insert as INSERT OR REPLACE and returns the rowid.
func (b *InsertBuilder) Upsert() (int64, error) {
	return b.exec("INSERT OR REPLACE")
}

func (b *InsertBuilder) exec(verb string) (int64, error) {
	if len(b.columns) == 0 {
		return 0, &QueryError{SQL: b.table, Err: errors.New("insert has no columns")}
	}

	stmt, err := b.conn.Prepare(b.sqlWithVerb(verb))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, v := range b.values {
		stmt.Bind(i+1, v)
	}
	if err := stmt.Execute(); err != nil {
		return 0, err
	}
	return b.conn.LastInsertRowID(), nil
}

// BatchInsert inserts many rows efficiently: one prepared statement,
// reused, with rows grouped into transactions of BatchSize. Grouping rows
// into a transaction avoids the per-row commit overhead of autocommit.
type BatchInsert struct {
	conn      *Conn
	table     string
	columns   []string
	rows      [][]Value
	batchSize int
	err       error
}

const defaultBatchSize = 1000

// NewBatchInsert starts a batch insert with a fixed column list.
func NewBatchInsert(conn *Conn, table string, columns ...string) *BatchInsert {
	return &BatchInsert{
		conn:      conn,
		table:     table,
		columns:   columns,
		batchSize: defaultBatchSize,
	}
}

// AddRow appends a row; the value count must match the column list.
func (b *BatchInsert) AddRow(values ...Value) *BatchInsert {
	if b.err != nil {
		return b
	}
	if len(values) != len(b.columns) {
		b.err = &QueryError{
			SQL: b.table,
			Err: fmt.Errorf("row has %d values, want %d", len(values), len(b.columns)),
		}
		return b
	}
	b.rows = append(b.rows, values)
	return b
}

// SetBatchSize bounds how many rows share one transaction. For very
// large inserts this caps transaction size and memory held by the WAL.
func (b *BatchInsert) SetBatchSize(n int) *BatchInsert {
	if n > 0 {
		b.batchSize = n
	}
	return b
}

// Clear drops all queued rows for reuse.
func (b *BatchInsert) Clear() *BatchInsert {
	b.rows = nil
	b.err = nil
	return b
}

// RowCount returns the number of queued rows.
func (b *BatchInsert) RowCount() int { return len(b.rows) }

// Exec inserts all queued rows and returns how many were inserted.
func (b *BatchInsert) Exec() (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(b.rows) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.columns, ", "), placeholders)

	stmt, err := b.conn.Prepare(query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for start := 0; start < len(b.rows); start += b.batchSize {
		end := start + b.batchSize
		if end > len(b.rows) {
			end = len(b.rows)
		}
		n, err := b.execBatch(stmt, b.rows[start:end])
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (b *BatchInsert) execBatch(stmt *Stmt, rows [][]Value) (int64, error) {
	tx, err := b.conn.Begin(TxDeferred)
	if err != nil {
		return 0, err
	}
	defer tx.Close()

	var inserted int64
	for _, row := range rows {
		stmt.ClearBindings()
		for i, v := range row {
			stmt.Bind(i+1, v)
		}
		if err := stmt.Execute(); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
