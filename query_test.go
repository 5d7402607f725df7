package sqlitedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPeople(t *testing.T) *Conn {
	t.Helper()

	conn := openTestDB(t)
	require.NoError(t, conn.Exec(
		"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER, city TEXT)"))

	batch := NewBatchInsert(conn, "people", "name", "age", "city")
	batch.AddRow(Text("ada"), Int64(36), Text("london"))
	batch.AddRow(Text("grace"), Int64(45), Text("arlington"))
	batch.AddRow(Text("alan"), Int64(41), Text("london"))
	batch.AddRow(Text("edsger"), Null(), Text("austin"))
	n, err := batch.Exec()
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	return conn
}

func TestQuery_SQLAssembly(t *testing.T) {
	conn := openTestDB(t)

	sql := NewQuery(conn, "people").
		Select("name", "age").
		Where("age", ">", Int64(18)).
		Where("city", "=", Text("london")).
		OrderBy("name", true).
		Limit(10).
		Offset(5).
		SQL()

	assert.Equal(t,
		"SELECT name, age FROM people WHERE age > ? AND city = ? ORDER BY name ASC LIMIT 10 OFFSET 5",
		sql)
}

func TestQuery_SQLWithJoinGroupHaving(t *testing.T) {
	conn := openTestDB(t)

	sql := NewQuery(conn, "people").
		SelectRaw("city, COUNT(*)").
		Join("jobs", "jobs.person_id = people.id").
		GroupBy("city").
		Having("COUNT(*) > ?", Int64(1)).
		SQL()

	assert.Equal(t,
		"SELECT city, COUNT(*) FROM people JOIN jobs ON jobs.person_id = people.id GROUP BY city HAVING COUNT(*) > ?",
		sql)
}

func TestQuery_FetchAll(t *testing.T) {
	conn := setupPeople(t)

	rows, err := NewQuery(conn, "people").
		Select("name").
		Where("city", "=", Text("london")).
		OrderBy("name", true).
		FetchAll()

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0][0].Text())
	assert.Equal(t, "alan", rows[1][0].Text())
}

func TestQuery_FetchOne(t *testing.T) {
	conn := setupPeople(t)

	row, err := NewQuery(conn, "people").
		Select("name", "age").
		Where("name", "=", Text("grace")).
		FetchOne()

	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "grace", row[0].Text())
	assert.EqualValues(t, 45, row[1].Int64())
}

func TestQuery_FetchOneEmptyResult(t *testing.T) {
	conn := setupPeople(t)

	row, err := NewQuery(conn, "people").
		Where("name", "=", Text("nobody")).
		FetchOne()

	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestQuery_Count(t *testing.T) {
	conn := setupPeople(t)

	n, err := NewQuery(conn, "people").
		Where("city", "=", Text("london")).
		OrderBy("name", true).
		Limit(1).
		Count()

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestQuery_WhereNullAndNotNull(t *testing.T) {
	conn := setupPeople(t)

	nullRows, err := NewQuery(conn, "people").Select("name").WhereNull("age").FetchAll()
	require.NoError(t, err)
	require.Len(t, nullRows, 1)
	assert.Equal(t, "edsger", nullRows[0][0].Text())

	n, err := NewQuery(conn, "people").WhereNotNull("age").Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestQuery_WhereIn(t *testing.T) {
	conn := setupPeople(t)

	n, err := NewQuery(conn, "people").
		WhereIn("name", Text("ada"), Text("grace")).
		Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestQuery_WhereInEmptyMatchesNothing(t *testing.T) {
	conn := setupPeople(t)

	n, err := NewQuery(conn, "people").WhereIn("name").Count()

	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestQuery_WhereExpr(t *testing.T) {
	conn := setupPeople(t)

	rows, err := NewQuery(conn, "people").
		Select("name").
		WhereExpr("age BETWEEN ? AND ?", Int64(40), Int64(50)).
		OrderBy("age", false).
		FetchAll()

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "grace", rows[0][0].Text())
	assert.Equal(t, "alan", rows[1][0].Text())
}

func TestQuery_GroupByHaving(t *testing.T) {
	conn := setupPeople(t)

	rows, err := NewQuery(conn, "people").
		SelectRaw("city, COUNT(*)").
		GroupBy("city").
		Having("COUNT(*) > ?", Int64(1)).
		FetchAll()

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "london", rows[0][0].Text())
	assert.EqualValues(t, 2, rows[0][1].Int64())
}

func TestQuery_PreparationErrorSurfaces(t *testing.T) {
	conn := setupPeople(t)

	_, err := NewQuery(conn, "no_such_table").FetchAll()

	require.Error(t, err)
	var queryErr *QueryError
	assert.ErrorAs(t, err, &queryErr)
}
