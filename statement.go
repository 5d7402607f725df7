package sqlitedb

import (
	"database/sql"
	"errors"
	"fmt"
)

// Stmt is a prepared statement. It is compiled once and reusable across
// Reset/ClearBindings cycles. Placeholders are positional `?` or named
// `:name`; binding is 1-indexed, column access is 0-indexed.
//
// Bind methods return the statement for chaining and latch the first
// binding failure; a latched error surfaces from the next Execute or Step.
type Stmt struct {
	conn *Conn
	sql  string
	stmt *sql.Stmt

	names   map[string][]int
	nargs   int
	args    []any
	bindErr error

	rows    *sql.Rows
	cols    []string
	current []Value
	done    bool
}

// Prepare compiles one SQL text into a reusable statement. Named
// placeholders are rewritten to positional form at compile time.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	rewritten, names, nargs := rewritePlaceholders(query)

	stmt, err := c.db.Prepare(rewritten)
	if err != nil {
		return nil, translateQueryErr(query, err)
	}

	return &Stmt{
		conn:  c,
		sql:   query,
		stmt:  stmt,
		names: names,
		nargs: nargs,
		args:  make([]any, nargs),
	}, nil
}

// rewritePlaceholders replaces `:name` placeholders with `?`, recording
// every slot index a name occupies, and counts the total parameter slots.
// A repeated name gets one positional slot per occurrence; BindNamed fills
// them all. String literals, quoted identifiers and comments are left
// untouched.
func rewritePlaceholders(query string) (rewritten string, names map[string][]int, nargs int) {
	names = make(map[string][]int)
	out := make([]byte, 0, len(query))

	for i := 0; i < len(query); {
		ch := query[i]
		switch ch {
		case '\'', '"', '`':
			// Copy the quoted region verbatim, honouring doubled quotes.
			out = append(out, ch)
			i++
			for i < len(query) {
				out = append(out, query[i])
				if query[i] == ch {
					if i+1 < len(query) && query[i+1] == ch {
						out = append(out, ch)
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				for i < len(query) && query[i] != '\n' {
					out = append(out, query[i])
					i++
				}
			} else {
				out = append(out, ch)
				i++
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				out = append(out, '/', '*')
				i += 2
				for i < len(query) {
					if query[i] == '*' && i+1 < len(query) && query[i+1] == '/' {
						out = append(out, '*', '/')
						i += 2
						break
					}
					out = append(out, query[i])
					i++
				}
			} else {
				out = append(out, ch)
				i++
			}
		case '?':
			nargs++
			out = append(out, ch)
			i++
		case ':':
			j := i + 1
			for j < len(query) && isIdentChar(query[j]) {
				j++
			}
			if j > i+1 {
				nargs++
				name := query[i+1:j]
				names[name] = append(names[name], nargs)
				out = append(out, '?')
				i = j
			} else {
				out = append(out, ch)
				i++
			}
		default:
			out = append(out, ch)
			i++
		}
	}

	return string(out), names, nargs
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// SQL returns the statement's original text.
func (s *Stmt) SQL() string { return s.sql }

// Bind binds a value to the 1-indexed placeholder.
func (s *Stmt) Bind(index int, v Value) *Stmt {
	if s.bindErr != nil {
		return s
	}
	if index < 1 || index > s.nargs {
		s.bindErr = &QueryError{
			SQL: s.sql,
			Err: fmt.Errorf("bind index %d out of range [1, %d]", index, s.nargs),
		}
		return s
	}
	s.args[index-1] = v.driverArg()
	return s
}

// BindNamed binds a value to a `:name` placeholder. Every occurrence of
// the name receives the value, the way the engine treats a repeated name
// as one shared parameter. An unknown name latches a QueryError.
func (s *Stmt) BindNamed(name string, v Value) *Stmt {
	if s.bindErr != nil {
		return s
	}
	indices, ok := s.names[name]
	if !ok {
		s.bindErr = &QueryError{SQL: s.sql, Err: fmt.Errorf("unknown parameter name %q", name)}
		return s
	}
	for _, index := range indices {
		s.Bind(index, v)
	}
	return s
}

// BindInt64 binds an integer.
func (s *Stmt) BindInt64(index int, v int64) *Stmt { return s.Bind(index, Int64(v)) }

// BindInt binds a plain int.
func (s *Stmt) BindInt(index int, v int) *Stmt { return s.Bind(index, Int(v)) }

// BindFloat binds a real.
func (s *Stmt) BindFloat(index int, v float64) *Stmt { return s.Bind(index, Float(v)) }

// BindText binds a string.
func (s *Stmt) BindText(index int, v string) *Stmt { return s.Bind(index, Text(v)) }

// BindBlob binds binary data.
func (s *Stmt) BindBlob(index int, v []byte) *Stmt { return s.Bind(index, Blob(v)) }

// BindNull binds NULL.
func (s *Stmt) BindNull(index int) *Stmt { return s.Bind(index, Null()) }

// ClearBindings resets all bound parameters to NULL for reuse.
func (s *Stmt) ClearBindings() *Stmt {
	for i := range s.args {
		s.args[i] = nil
	}
	s.bindErr = nil
	return s
}

// Execute runs a statement that produces no rows: INSERT, UPDATE, DELETE,
// DDL. Constraint violations surface as *ConstraintError.
func (s *Stmt) Execute() error {
	if s.bindErr != nil {
		return s.bindErr
	}
	if s.rows != nil {
		return &QueryError{SQL: s.sql, Err: errors.New("statement has an open row iteration; Reset it first")}
	}

	res, err := s.stmt.Exec(s.args...)
	if err != nil {
		return translateQueryErr(s.sql, err)
	}
	s.conn.recordResult(res)
	return nil
}

// Step advances to the next result row. It returns true when a row is
// available and false once the statement is done. The first call runs the
// query with the current bindings.
func (s *Stmt) Step() (bool, error) {
	if s.bindErr != nil {
		return false, s.bindErr
	}

	if s.rows == nil {
		if s.done {
			return false, nil
		}
		rows, err := s.stmt.Query(s.args...)
		if err != nil {
			return false, translateQueryErr(s.sql, err)
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return false, translateQueryErr(s.sql, err)
		}
		s.rows = rows
		s.cols = cols
	}

	if s.rows.Next() {
		raw := make([]any, len(s.cols))
		ptrs := make([]any, len(s.cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := s.rows.Scan(ptrs...); err != nil {
			return false, translateQueryErr(s.sql, err)
		}
		s.current = make([]Value, len(raw))
		for i, v := range raw {
			s.current[i] = valueOf(v)
		}
		return true, nil
	}

	err := s.rows.Err()
	s.rows.Close()
	s.rows = nil
	s.done = true
	s.current = nil
	if err != nil {
		return false, translateQueryErr(s.sql, err)
	}
	return false, nil
}

// Reset readies the statement for re-execution with the same bindings.
func (s *Stmt) Reset() *Stmt {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	s.done = false
	s.current = nil
	return s
}

// Close finalises the statement. Safe to call more than once.
func (s *Stmt) Close() error {
	s.Reset()
	if s.stmt == nil {
		return nil
	}
	err := s.stmt.Close()
	s.stmt = nil
	if err != nil {
		return translateQueryErr(s.sql, err)
	}
	return nil
}

// ColumnCount returns the number of columns in the result.
func (s *Stmt) ColumnCount() int { return len(s.cols) }

// ColumnName returns the 0-indexed column's name, or "" out of range.
func (s *Stmt) ColumnName(index int) string {
	if index < 0 || index >= len(s.cols) {
		return ""
	}
	return s.cols[index]
}

// column returns the current row's value at index, or NULL out of range.
func (s *Stmt) column(index int) Value {
	if index < 0 || index >= len(s.current) {
		return Null()
	}
	return s.current[index]
}

// IsNull reports whether the 0-indexed column of the current row is NULL.
func (s *Stmt) IsNull(index int) bool { return s.column(index).IsNull() }

// ColumnValue returns the current row's value with its storage class.
func (s *Stmt) ColumnValue(index int) Value { return s.column(index) }

// ColumnInt64 returns the column as an integer; NULL reads as 0.
func (s *Stmt) ColumnInt64(index int) int64 { return s.column(index).Int64() }

// ColumnInt returns the column as an int; NULL reads as 0.
func (s *Stmt) ColumnInt(index int) int { return int(s.column(index).Int64()) }

// ColumnDouble returns the column as a real; NULL reads as 0.
func (s *Stmt) ColumnDouble(index int) float64 { return s.column(index).Float() }

// ColumnText returns the column as text; NULL reads as "".
func (s *Stmt) ColumnText(index int) string { return s.column(index).Text() }

// ColumnBlob returns the column as binary; NULL reads as nil.
func (s *Stmt) ColumnBlob(index int) []byte { return s.column(index).Blob() }

// ColumnNullInt64 returns the column as an integer and whether it was
// non-NULL.
func (s *Stmt) ColumnNullInt64(index int) (int64, bool) {
	v := s.column(index)
	return v.Int64(), !v.IsNull()
}

// ColumnNullDouble returns the column as a real and whether it was
// non-NULL.
func (s *Stmt) ColumnNullDouble(index int) (float64, bool) {
	v := s.column(index)
	return v.Float(), !v.IsNull()
}

// ColumnNullText returns the column as text and whether it was non-NULL.
func (s *Stmt) ColumnNullText(index int) (string, bool) {
	v := s.column(index)
	return v.Text(), !v.IsNull()
}
