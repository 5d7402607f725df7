package sqlitedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKindsTable(t *testing.T) *Conn {
	t.Helper()

	conn := openTestDB(t)
	require.NoError(t, conn.Exec(
		"CREATE TABLE vals (i INTEGER, f REAL, s TEXT, b BLOB, n TEXT)"))
	return conn
}

func TestStmt_BindAndReadAllKinds(t *testing.T) {
	conn := setupKindsTable(t)

	stmt, err := conn.Prepare("INSERT INTO vals (i, f, s, b, n) VALUES (?, ?, ?, ?, ?)")
	require.NoError(t, err)
	err = stmt.
		BindInt64(1, 42).
		BindFloat(2, 3.5).
		BindText(3, "hello").
		BindBlob(4, []byte{0xde, 0xad}).
		BindNull(5).
		Execute()
	require.NoError(t, err)
	require.NoError(t, stmt.Close())

	query, err := conn.Prepare("SELECT i, f, s, b, n FROM vals")
	require.NoError(t, err)
	defer query.Close()

	ok, err := query.Step()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 5, query.ColumnCount())
	assert.EqualValues(t, 42, query.ColumnInt64(0))
	assert.Equal(t, KindInt, query.ColumnValue(0).Kind())
	assert.Equal(t, 3.5, query.ColumnDouble(1))
	assert.Equal(t, KindFloat, query.ColumnValue(1).Kind())
	assert.Equal(t, "hello", query.ColumnText(2))
	assert.Equal(t, KindText, query.ColumnValue(2).Kind())
	assert.Equal(t, []byte{0xde, 0xad}, query.ColumnBlob(3))
	assert.Equal(t, KindBlob, query.ColumnValue(3).Kind())
	assert.True(t, query.IsNull(4))

	ok, err = query.Step()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStmt_NamedParameters(t *testing.T) {
	conn := setupKindsTable(t)

	stmt, err := conn.Prepare("INSERT INTO vals (i, s) VALUES (:num, :label)")
	require.NoError(t, err)
	defer stmt.Close()

	err = stmt.
		BindNamed("num", Int64(7)).
		BindNamed("label", Text("seven")).
		Execute()
	require.NoError(t, err)

	row, err := NewQuery(conn, "vals").Select("i", "s").FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 7, row[0].Int64())
	assert.Equal(t, "seven", row[1].Text())
}

func TestStmt_RepeatedNameBindsEveryOccurrence(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, conn.ExecScript(`
		CREATE TABLE pairs (a INTEGER, b INTEGER);
		INSERT INTO pairs VALUES (7, 0), (0, 7);
	`))

	stmt, err := conn.Prepare("SELECT COUNT(*) FROM pairs WHERE a = :v OR b = :v")
	require.NoError(t, err)
	defer stmt.Close()

	ok, err := stmt.BindNamed("v", Int64(7)).Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, stmt.ColumnInt64(0))
}

func TestStmt_UnknownNameLatchesError(t *testing.T) {
	conn := setupKindsTable(t)

	stmt, err := conn.Prepare("INSERT INTO vals (i) VALUES (:num)")
	require.NoError(t, err)
	defer stmt.Close()

	err = stmt.BindNamed("wrong", Int64(1)).Execute()

	require.Error(t, err)
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Contains(t, queryErr.Err.Error(), `unknown parameter name "wrong"`)
}

func TestStmt_BindIndexOutOfRange(t *testing.T) {
	conn := setupKindsTable(t)

	stmt, err := conn.Prepare("INSERT INTO vals (i) VALUES (?)")
	require.NoError(t, err)
	defer stmt.Close()

	err = stmt.BindInt64(2, 1).Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	// The error is latched until bindings are cleared.
	require.Error(t, stmt.BindInt64(1, 1).Execute())
	require.NoError(t, stmt.ClearBindings().BindInt64(1, 1).Execute())
}

func TestStmt_UnboundParameterIsNull(t *testing.T) {
	conn := setupKindsTable(t)

	stmt, err := conn.Prepare("INSERT INTO vals (i, s) VALUES (?, ?)")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.BindInt64(1, 1).Execute())

	query, err := conn.Prepare("SELECT s FROM vals")
	require.NoError(t, err)
	defer query.Close()

	ok, err := query.Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, query.IsNull(0))
}

func TestStmt_ResetAndReuse(t *testing.T) {
	conn := setupKindsTable(t)

	insert, err := conn.Prepare("INSERT INTO vals (i) VALUES (?)")
	require.NoError(t, err)
	defer insert.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, insert.ClearBindings().BindInt(1, i).Execute())
	}

	query, err := conn.Prepare("SELECT COUNT(*) FROM vals")
	require.NoError(t, err)
	defer query.Close()

	for run := 0; run < 2; run++ {
		ok, err := query.Step()
		require.NoError(t, err)
		require.True(t, ok)
		assert.EqualValues(t, 3, query.ColumnInt64(0))

		ok, err = query.Step()
		require.NoError(t, err)
		require.False(t, ok)

		query.Reset()
	}
}

func TestStmt_ColumnNames(t *testing.T) {
	conn := setupKindsTable(t)
	require.NoError(t, conn.Exec("INSERT INTO vals (i) VALUES (1)"))

	stmt, err := conn.Prepare("SELECT i, s FROM vals")
	require.NoError(t, err)
	defer stmt.Close()

	ok, err := stmt.Step()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "i", stmt.ColumnName(0))
	assert.Equal(t, "s", stmt.ColumnName(1))
	assert.Equal(t, "", stmt.ColumnName(2))
}

func TestStmt_NullColumnReaders(t *testing.T) {
	conn := setupKindsTable(t)
	require.NoError(t, conn.Exec("INSERT INTO vals (i) VALUES (NULL)"))

	stmt, err := conn.Prepare("SELECT i FROM vals")
	require.NoError(t, err)
	defer stmt.Close()

	ok, err := stmt.Step()
	require.NoError(t, err)
	require.True(t, ok)

	assert.EqualValues(t, 0, stmt.ColumnInt64(0))
	v, present := stmt.ColumnNullInt64(0)
	assert.EqualValues(t, 0, v)
	assert.False(t, present)
}

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		rewritten string
		names     map[string][]int
		nargs     int
	}{
		{
			name:      "positional only",
			query:     "SELECT * FROM t WHERE a = ? AND b = ?",
			rewritten: "SELECT * FROM t WHERE a = ? AND b = ?",
			names:     map[string][]int{},
			nargs:     2,
		},
		{
			name:      "named only",
			query:     "INSERT INTO t (a, b) VALUES (:first, :second)",
			rewritten: "INSERT INTO t (a, b) VALUES (?, ?)",
			names:     map[string][]int{"first": {1}, "second": {2}},
			nargs:     2,
		},
		{
			name:      "mixed",
			query:     "UPDATE t SET a = ? WHERE b = :key",
			rewritten: "UPDATE t SET a = ? WHERE b = ?",
			names:     map[string][]int{"key": {2}},
			nargs:     2,
		},
		{
			name:      "repeated name shares slots",
			query:     "SELECT * FROM t WHERE a = :v OR b = :v",
			rewritten: "SELECT * FROM t WHERE a = ? OR b = ?",
			names:     map[string][]int{"v": {1, 2}},
			nargs:     2,
		},
		{
			name:      "colon in string literal untouched",
			query:     "SELECT ':notaparam' WHERE a = :real",
			rewritten: "SELECT ':notaparam' WHERE a = ?",
			names:     map[string][]int{"real": {1}},
			nargs:     1,
		},
		{
			name:      "line comment untouched",
			query:     "SELECT 1 -- :hidden\nWHERE a = :x",
			rewritten: "SELECT 1 -- :hidden\nWHERE a = ?",
			names:     map[string][]int{"x": {1}},
			nargs:     1,
		},
		{
			name:      "block comment untouched",
			query:     "SELECT /* :hidden */ :x",
			rewritten: "SELECT /* :hidden */ ?",
			names:     map[string][]int{"x": {1}},
			nargs:     1,
		},
		{
			name:      "doubled quote inside literal",
			query:     "SELECT 'it''s :fine' WHERE a = ?",
			rewritten: "SELECT 'it''s :fine' WHERE a = ?",
			names:     map[string][]int{},
			nargs:     1,
		},
		{
			name:      "bare colon untouched",
			query:     "SELECT a FROM t WHERE b = ':'",
			rewritten: "SELECT a FROM t WHERE b = ':'",
			names:     map[string][]int{},
			nargs:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rewritten, names, nargs := rewritePlaceholders(tt.query)
			assert.Equal(t, tt.rewritten, rewritten)
			assert.Equal(t, tt.names, names)
			assert.Equal(t, tt.nargs, nargs)
		})
	}
}
