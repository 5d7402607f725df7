package sqlitedb

import "fmt"

// Repository provides collection-style access to a table keyed by an
// integer `id` primary key. The scan function converts the statement's
// current row into an entity:
//
//	type User struct {
//		ID   int64
//		Name string
//	}
//
//	users := sqlitedb.NewRepository(conn, "users", func(s *sqlitedb.Stmt) (User, error) {
//		return User{ID: s.ColumnInt64(0), Name: s.ColumnText(1)}, nil
//	})
type Repository[T any] struct {
	conn  *Conn
	table string
	scan  func(*Stmt) (T, error)
}

// NewRepository creates a repository over a table.
func NewRepository[T any](conn *Conn, table string, scan func(*Stmt) (T, error)) *Repository[T] {
	return &Repository[T]{conn: conn, table: table, scan: scan}
}

// FindByID returns the entity with the given id, reporting whether it
// exists.
func (r *Repository[T]) FindByID(id int64) (T, bool, error) {
	var zero T

	stmt, err := r.conn.Prepare(fmt.Sprintf("SELECT * FROM %s WHERE id = ?", r.table))
	if err != nil {
		return zero, false, err
	}
	defer stmt.Close()

	ok, err := stmt.BindInt64(1, id).Step()
	if err != nil || !ok {
		return zero, false, err
	}
	entity, err := r.scan(stmt)
	if err != nil {
		return zero, false, err
	}
	return entity, true, nil
}

// FindAll returns every entity in the table.
func (r *Repository[T]) FindAll() ([]T, error) {
	stmt, err := r.conn.Prepare(fmt.Sprintf("SELECT * FROM %s", r.table))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var entities []T
	for {
		ok, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		entity, err := r.scan(stmt)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// DeleteByID removes the entity with the given id, reporting whether a
// row was deleted.
func (r *Repository[T]) DeleteByID(id int64) (bool, error) {
	if err := r.conn.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table), id); err != nil {
		return false, err
	}
	return r.conn.Changes() > 0, nil
}

// Count returns the number of rows in the table.
func (r *Repository[T]) Count() (int64, error) {
	stmt, err := r.conn.Prepare(fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	if _, err := stmt.Step(); err != nil {
		return 0, err
	}
	return stmt.ColumnInt64(0), nil
}

// Exists reports whether an entity with the given id exists.
func (r *Repository[T]) Exists(id int64) (bool, error) {
	stmt, err := r.conn.Prepare(fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? LIMIT 1", r.table))
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	return stmt.BindInt64(1, id).Step()
}
