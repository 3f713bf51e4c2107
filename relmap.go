// Package relmap is a small single-table entity mapper over database/sql.
//
// A row type is mapped by declaring a schema.Table descriptor once, at
// program start: the stored table name, the primary-key column, and one
// typed column per persisted field. The mapper validates the descriptor at
// construction and then persists, queries, and hydrates records of that
// type against a caller-owned dialect.Driver:
//
//	type User struct {
//	    ID    int64
//	    Name  string
//	    Email string
//	}
//
//	var userTable = schema.Table[User]{
//	    Name: "users",
//	    ID:   schema.Int64("user_id", func(u *User) *int64 { return &u.ID }),
//	    Columns: []schema.Column[User]{
//	        schema.String("name", func(u *User) *string { return &u.Name }),
//	        schema.String("email", func(u *User) *string { return &u.Email }),
//	    },
//	}
//
//	users, err := relmap.New(drv, userTable)
//	...
//	ok, err := users.Persist(ctx, &User{Name: "Alice", Email: "a@x.com"})
//
// Persist treats an entity with a zero or negative key as transient and
// inserts it; an entity with a positive key is updated with a diff-based
// UPDATE that touches only the columns whose values differ from the stored
// row. All statements are parameterized; no caller data is ever rendered
// into statement text.
package relmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/relmap/relmap/dialect"
	"github.com/relmap/relmap/dialect/sql"
	"github.com/relmap/relmap/schema"
)

// Mapper persists and retrieves records of one row type against a single
// table. It is safe for concurrent use as long as the underlying driver is;
// concurrent updates of the same row are last-write-wins, with a race
// window between the read-for-diff and the write.
type Mapper[T any] struct {
	drv   dialect.Driver
	table schema.Table[T]
	label string
}

// New validates the descriptor and returns a mapper over the given driver.
// Descriptor defects (missing table name, missing or non-integer primary
// key, duplicate columns) surface here as a ConfigurationError, before any
// statement is built. The caller keeps ownership of the driver; the mapper
// never closes it.
func New[T any](drv dialect.Driver, table schema.Table[T]) (*Mapper[T], error) {
	label := entityLabel[T]()
	if drv == nil {
		return nil, NewConfigurationError(label, fmt.Errorf("nil driver"))
	}
	if err := table.Validate(); err != nil {
		return nil, NewConfigurationError(label, err)
	}
	return &Mapper[T]{drv: drv, table: table, label: label}, nil
}

// Persist writes the entity to its table. A transient entity (primary key
// unset, zero, or negative) is inserted with all declared columns in
// declaration order, and the generated key is assigned back to it. A
// persisted entity is diffed against its stored row and updated with the
// changed columns only; if nothing changed, no statement is executed.
//
// The returned bool reports whether a row was written: true for a
// successful insert, and for updates whether any row was affected.
func (m *Mapper[T]) Persist(ctx context.Context, entity *T) (bool, error) {
	id, err := m.primaryKey(entity)
	if err != nil {
		return false, err
	}
	if id <= 0 {
		return m.insert(ctx, entity)
	}
	return m.update(ctx, entity, id)
}

// Find returns all rows matching the predicate, hydrated in result-set
// order. A nil predicate returns every row of the table.
func (m *Mapper[T]) Find(ctx context.Context, p *sql.Predicate) ([]*T, error) {
	rows, err := m.query(ctx, p, 0)
	if err != nil {
		return nil, err
	}
	return rows.All()
}

// Query returns the matching rows as a lazy, one-shot sequence. The caller
// must drain or Close it. A nil predicate selects every row of the table.
func (m *Mapper[T]) Query(ctx context.Context, p *sql.Predicate) (*Rows[T], error) {
	return m.query(ctx, p, 0)
}

// FindFirst returns the first row matching the predicate. It fails with a
// NotFoundError when the result set is empty.
func (m *Mapper[T]) FindFirst(ctx context.Context, p *sql.Predicate) (*T, error) {
	rows, err := m.query(ctx, p, 1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, NewExecutionError(m.label, "select", err)
		}
		return nil, NewNotFoundError(m.label)
	}
	return rows.Entity()
}

// Delete removes the entity's stored row by primary key. Deleting an entity
// whose row does not exist, or a transient entity, fails with a
// NotFoundError; Delete never reports success without having removed a row.
func (m *Mapper[T]) Delete(ctx context.Context, entity *T) (bool, error) {
	id, err := m.primaryKey(entity)
	if err != nil {
		return false, err
	}
	if id <= 0 {
		return false, NewNotFoundError(m.label)
	}
	query, args := m.builder().
		Delete(m.table.Name).
		Where(sql.EQ(m.table.ID.Name, id)).
		Query()
	var res sql.Result
	if err := m.drv.Exec(ctx, query, args, &res); err != nil {
		return false, NewExecutionError(m.label, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, NewExecutionError(m.label, "delete", err)
	}
	if n == 0 {
		return false, NewNotFoundErrorWithID(m.label, id)
	}
	return true, nil
}

func (m *Mapper[T]) insert(ctx context.Context, entity *T) (bool, error) {
	ib := m.builder().Insert(m.table.Name)
	for i := range m.table.Columns {
		c := &m.table.Columns[i]
		v, err := c.Value(entity)
		if err != nil {
			return false, NewMappingError(m.label, c.Name, err)
		}
		ib.Set(c.Name, v)
	}
	if m.drv.Dialect() == dialect.Postgres {
		return m.insertReturning(ctx, entity, ib)
	}
	query, args := ib.Query()
	var res sql.Result
	if err := m.drv.Exec(ctx, query, args, &res); err != nil {
		return false, NewExecutionError(m.label, "insert", err)
	}
	// Some drivers cannot report generated keys; the insert itself
	// succeeded, so the key stays unset rather than failing the call.
	// Postgres inserts go through insertReturning instead.
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		if err := m.table.ID.Scan(entity, id); err != nil {
			return false, NewMappingError(m.label, m.table.ID.Name, err)
		}
	}
	return true, nil
}

// insertReturning executes the insert with a RETURNING clause, since
// Postgres does not report LastInsertId through sql.Result.
func (m *Mapper[T]) insertReturning(ctx context.Context, entity *T, ib *sql.InsertBuilder) (bool, error) {
	query, args := ib.Returning(m.table.ID.Name).Query()
	var rows sql.Rows
	if err := m.drv.Query(ctx, query, args, &rows); err != nil {
		return false, NewExecutionError(m.label, "insert", err)
	}
	defer rows.Close()
	var id sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return false, NewExecutionError(m.label, "insert", err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, NewExecutionError(m.label, "insert", err)
	}
	if id.Valid && id.Int64 > 0 {
		if err := m.table.ID.Scan(entity, id.Int64); err != nil {
			return false, NewMappingError(m.label, m.table.ID.Name, err)
		}
	}
	return true, nil
}

func (m *Mapper[T]) update(ctx context.Context, entity *T, id int64) (bool, error) {
	stored, err := m.fetch(ctx, id)
	if err != nil {
		return false, err
	}
	set, err := m.changedColumns(entity, stored)
	if err != nil {
		return false, err
	}
	ub := m.builder().Update(m.table.Name)
	for _, a := range set {
		ub.Set(a.column, a.value)
	}
	if ub.Empty() {
		// Nothing differs from the stored row. Skip execution instead of
		// rendering an UPDATE without SET clauses.
		return false, nil
	}
	query, args := ub.Where(sql.EQ(m.table.ID.Name, id)).Query()
	var res sql.Result
	if err := m.drv.Exec(ctx, query, args, &res); err != nil {
		return false, NewExecutionError(m.label, "update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, NewExecutionError(m.label, "update", err)
	}
	return n > 0, nil
}

// fetch loads the stored row for the given key, for the read-for-diff step.
func (m *Mapper[T]) fetch(ctx context.Context, id int64) (*T, error) {
	rows, err := m.query(ctx, sql.EQ(m.table.ID.Name, id), 1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, NewExecutionError(m.label, "select", err)
		}
		return nil, NewNotFoundErrorWithID(m.label, id)
	}
	return rows.Entity()
}

func (m *Mapper[T]) query(ctx context.Context, p *sql.Predicate, limit int) (*Rows[T], error) {
	s := m.builder().Select().From(m.table.Name).Where(p)
	if limit > 0 {
		s.Limit(limit)
	}
	query, args := s.Query()
	var rows sql.Rows
	if err := m.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, NewExecutionError(m.label, "select", err)
	}
	return newRows(m.table, m.label, rows)
}

func (m *Mapper[T]) builder() *sql.DialectBuilder {
	return sql.Dialect(m.drv.Dialect())
}

func (m *Mapper[T]) primaryKey(entity *T) (int64, error) {
	v, err := m.table.ID.Value(entity)
	if err != nil {
		return 0, NewMappingError(m.label, m.table.ID.Name, err)
	}
	id, ok := v.(int64)
	if !ok {
		return 0, NewMappingError(m.label, m.table.ID.Name, fmt.Errorf("primary key is %T, want int64", v))
	}
	return id, nil
}

// entityLabel derives the error label from the row type name.
func entityLabel[T any]() string {
	var zero T
	s := fmt.Sprintf("%T", zero)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
