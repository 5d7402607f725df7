package sqlitedb

import (
	"fmt"
	"strings"
)

// Validation error kinds.
const (
	ErrKindMissingTable  = "missing_table"
	ErrKindMissingColumn = "missing_column"
	ErrKindWrongType     = "wrong_type"
	ErrKindNullable      = "nullable"
	ErrKindMissingIndex  = "missing_index"
)

// ValidationError is one structural violation found by a Validator.
type ValidationError struct {
	Kind    string
	Message string
}

// Validator accumulates declarative structural requirements and checks
// them against the live schema catalog. The builder methods never touch a
// connection; all engine access happens in Validate.
//
// Even with migrations in place, validating at startup catches manual
// modifications and corruption early, with clear messages.
type Validator struct {
	tables  []tableRequirement
	columns []columnRequirement
	indexes []indexRequirement
}

type tableRequirement struct {
	name string
}

type columnRequirement struct {
	table        string
	column       string
	expectedType string
	notNull      bool
}

type indexRequirement struct {
	table string
	index string
}

// NewValidator returns an empty requirement set.
func NewValidator() *Validator {
	return &Validator{}
}

// RequireTable requires a table to exist.
func (v *Validator) RequireTable(name string) *Validator {
	v.tables = append(v.tables, tableRequirement{name: name})
	return v
}

// RequireColumn requires a column to exist. A non-empty expectedType is
// matched case-insensitively as a substring of the declared type.
func (v *Validator) RequireColumn(table, column, expectedType string) *Validator {
	for i := range v.columns {
		if v.columns[i].table == table && v.columns[i].column == column {
			if expectedType != "" {
				v.columns[i].expectedType = expectedType
			}
			return v
		}
	}
	v.columns = append(v.columns, columnRequirement{table: table, column: column, expectedType: expectedType})
	return v
}

// RequireNotNull requires a column to be declared NOT NULL. Merges onto
// an existing requirement for the same (table, column).
func (v *Validator) RequireNotNull(table, column string) *Validator {
	for i := range v.columns {
		if v.columns[i].table == table && v.columns[i].column == column {
			v.columns[i].notNull = true
			return v
		}
	}
	v.columns = append(v.columns, columnRequirement{table: table, column: column, notNull: true})
	return v
}

// RequireIndex requires an index of the given name on a table.
func (v *Validator) RequireIndex(table, index string) *Validator {
	v.indexes = append(v.indexes, indexRequirement{table: table, index: index})
	return v
}

// Validate checks every requirement and returns the full list of
// violations; an empty list means the schema passes. It never stops at
// the first failure. Violations come back grouped (tables, then columns,
// then indexes) in requirement-insertion order within each group, so the
// output is deterministic. The error return is reserved for engine
// failures while reading the catalog.
func (v *Validator) Validate(conn *Conn) ([]ValidationError, error) {
	var violations []ValidationError

	for _, req := range v.tables {
		exists, err := conn.TableExists(req.name)
		if err != nil {
			return nil, err
		}
		if !exists {
			violations = append(violations, ValidationError{
				Kind:    ErrKindMissingTable,
				Message: fmt.Sprintf("required table %q does not exist", req.name),
			})
		}
	}

	for _, req := range v.columns {
		errs, err := v.checkColumn(conn, req)
		if err != nil {
			return nil, err
		}
		violations = append(violations, errs...)
	}

	for _, req := range v.indexes {
		exists, err := indexExists(conn, req.table, req.index)
		if err != nil {
			return nil, err
		}
		if !exists {
			violations = append(violations, ValidationError{
				Kind:    ErrKindMissingIndex,
				Message: fmt.Sprintf("required index %q on table %q does not exist", req.index, req.table),
			})
		}
	}

	return violations, nil
}

// checkColumn reads the table's column catalog and checks existence,
// declared type and nullability for one requirement.
func (v *Validator) checkColumn(conn *Conn, req columnRequirement) ([]ValidationError, error) {
	// PRAGMA arguments cannot be bound, so the identifier is quoted in.
	stmt, err := conn.Prepare("PRAGMA table_info(" + quoteIdent(req.table) + ")")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var violations []ValidationError
	found := false
	for {
		ok, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if stmt.ColumnText(1) != req.column {
			continue
		}
		found = true

		if req.expectedType != "" {
			declared := stmt.ColumnText(2)
			if !strings.Contains(strings.ToUpper(declared), strings.ToUpper(req.expectedType)) {
				violations = append(violations, ValidationError{
					Kind: ErrKindWrongType,
					Message: fmt.Sprintf("column %q.%q has type %q, expected %q",
						req.table, req.column, declared, req.expectedType),
				})
			}
		}
		if req.notNull && stmt.ColumnInt(3) == 0 {
			violations = append(violations, ValidationError{
				Kind:    ErrKindNullable,
				Message: fmt.Sprintf("column %q.%q should be NOT NULL", req.table, req.column),
			})
		}
		break
	}

	if !found {
		violations = append(violations, ValidationError{
			Kind:    ErrKindMissingColumn,
			Message: fmt.Sprintf("required column %q.%q does not exist", req.table, req.column),
		})
	}
	return violations, nil
}

func indexExists(conn *Conn, table, index string) (bool, error) {
	stmt, err := conn.Prepare(
		"SELECT 1 FROM sqlite_master WHERE type='index' AND tbl_name=? AND name=?")
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	return stmt.BindText(1, table).BindText(2, index).Step()
}

// ValidateOrErr runs Validate and returns a *SchemaError aggregating all
// violations when any are found.
func (v *Validator) ValidateOrErr(conn *Conn) error {
	violations, err := v.Validate(conn)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}
