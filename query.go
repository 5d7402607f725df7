package sqlitedb

import (
	"fmt"
	"strings"
)

// QueryBuilder assembles a SELECT statement fluently and runs it through
// a prepared statement, so values never end up concatenated into SQL.
//
//	rows, err := sqlitedb.NewQuery(conn, "users").
//		Select("id", "name").
//		Where("active", "=", sqlitedb.Int64(1)).
//		OrderBy("name", true).
//		Limit(10).
//		FetchAll()
type QueryBuilder struct {
	conn         *Conn
	table        string
	selectClause string
	joins        []string
	wheres       []string
	whereValues  []Value
	orderBy      string
	groupBy      string
	having       string
	havingValues []Value
	limit        int
	offset       int
}

// NewQuery starts a query against a table.
func NewQuery(conn *Conn, table string) *QueryBuilder {
	return &QueryBuilder{
		conn:         conn,
		table:        table,
		selectClause: "*",
		limit:        -1,
		offset:       -1,
	}
}

// Select sets the selected columns.
func (q *QueryBuilder) Select(columns ...string) *QueryBuilder {
	if len(columns) > 0 {
		q.selectClause = strings.Join(columns, ", ")
	}
	return q
}

// SelectRaw sets a raw select expression, e.g. "COUNT(*)".
func (q *QueryBuilder) SelectRaw(expr string) *QueryBuilder {
	q.selectClause = expr
	return q
}

// From sets the table.
func (q *QueryBuilder) From(table string) *QueryBuilder {
	q.table = table
	return q
}

// Where adds a "column op ?" condition.
func (q *QueryBuilder) Where(column, op string, value Value) *QueryBuilder {
	q.wheres = append(q.wheres, fmt.Sprintf("%s %s ?", column, op))
	q.whereValues = append(q.whereValues, value)
	return q
}

// WhereExpr adds a raw condition with its placeholder values.
func (q *QueryBuilder) WhereExpr(condition string, values ...Value) *QueryBuilder {
	q.wheres = append(q.wheres, condition)
	q.whereValues = append(q.whereValues, values...)
	return q
}

// WhereNull adds an "IS NULL" condition.
func (q *QueryBuilder) WhereNull(column string) *QueryBuilder {
	q.wheres = append(q.wheres, column+" IS NULL")
	return q
}

// WhereNotNull adds an "IS NOT NULL" condition.
func (q *QueryBuilder) WhereNotNull(column string) *QueryBuilder {
	q.wheres = append(q.wheres, column+" IS NOT NULL")
	return q
}

// WhereIn adds an "IN (...)" condition over the given values.
func (q *QueryBuilder) WhereIn(column string, values ...Value) *QueryBuilder {
	if len(values) == 0 {
		// IN over an empty set matches nothing.
		q.wheres = append(q.wheres, "1 = 0")
		return q
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	q.wheres = append(q.wheres, fmt.Sprintf("%s IN (%s)", column, placeholders))
	q.whereValues = append(q.whereValues, values...)
	return q
}

// Join adds an inner join.
func (q *QueryBuilder) Join(table, condition string) *QueryBuilder {
	q.joins = append(q.joins, fmt.Sprintf("JOIN %s ON %s", table, condition))
	return q
}

// LeftJoin adds a left join.
func (q *QueryBuilder) LeftJoin(table, condition string) *QueryBuilder {
	q.joins = append(q.joins, fmt.Sprintf("LEFT JOIN %s ON %s", table, condition))
	return q
}

// OrderBy sets the sort column and direction.
func (q *QueryBuilder) OrderBy(column string, ascending bool) *QueryBuilder {
	dir := "ASC"
	if !ascending {
		dir = "DESC"
	}
	if q.orderBy != "" {
		q.orderBy += ", "
	}
	q.orderBy += column + " " + dir
	return q
}

// GroupBy sets the grouping column.
func (q *QueryBuilder) GroupBy(column string) *QueryBuilder {
	q.groupBy = column
	return q
}

// Having adds a HAVING condition with its placeholder values.
func (q *QueryBuilder) Having(condition string, values ...Value) *QueryBuilder {
	q.having = condition
	q.havingValues = values
	return q
}

// Limit caps the number of returned rows.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Offset skips the first n rows.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = n
	return q
}

// SQL returns the assembled statement text.
func (q *QueryBuilder) SQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(q.selectClause)
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(q.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.wheres, " AND "))
	}
	if q.groupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(q.groupBy)
	}
	if q.having != "" {
		b.WriteString(" HAVING ")
		b.WriteString(q.having)
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
	}
	if q.limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}
	if q.offset >= 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.offset)
	}
	return b.String()
}

// values returns all placeholder values in clause order.
func (q *QueryBuilder) values() []Value {
	all := make([]Value, 0, len(q.whereValues)+len(q.havingValues))
	all = append(all, q.whereValues...)
	all = append(all, q.havingValues...)
	return all
}

// FetchAll runs the query and returns every row.
func (q *QueryBuilder) FetchAll() ([][]Value, error) {
	stmt, err := q.prepare()
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var rows [][]Value
	for {
		ok, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row := make([]Value, stmt.ColumnCount())
		for i := range row {
			row[i] = stmt.ColumnValue(i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchOne runs the query and returns the first row, or nil when the
// result is empty.
func (q *QueryBuilder) FetchOne() ([]Value, error) {
	stmt, err := q.prepare()
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ok, err := stmt.Step()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	row := make([]Value, stmt.ColumnCount())
	for i := range row {
		row[i] = stmt.ColumnValue(i)
	}
	return row, nil
}

// Count runs the query as SELECT COUNT(*) with the same conditions.
func (q *QueryBuilder) Count() (int64, error) {
	counted := *q
	counted.selectClause = "COUNT(*)"
	counted.orderBy = ""
	counted.limit = -1
	counted.offset = -1

	row, err := counted.FetchOne()
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row[0].Int64(), nil
}

func (q *QueryBuilder) prepare() (*Stmt, error) {
	stmt, err := q.conn.Prepare(q.SQL())
	if err != nil {
		return nil, err
	}
	for i, v := range q.values() {
		stmt.Bind(i+1, v)
	}
	return stmt, nil
}
