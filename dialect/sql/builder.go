package sql

import (
	"strconv"
	"strings"

	"github.com/relmap/relmap/dialect"
)

// stmt is the shared render state of one statement: the text being built,
// the bound arguments, and the placeholder counter. All clauses of a
// statement, including its predicate, write through the same stmt so that
// Postgres placeholders stay numbered consecutively.
type stmt struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// ident writes the quoted identifier. MySQL quotes with backticks, the
// other dialects with double quotes. The asterisk is passed through.
func (s *stmt) ident(name string) {
	if name == "*" {
		s.sb.WriteString(name)
		return
	}
	q := `"`
	if s.dialect == dialect.MySQL {
		q = "`"
	}
	s.sb.WriteString(q)
	s.sb.WriteString(name)
	s.sb.WriteString(q)
}

// arg binds v and writes its placeholder.
func (s *stmt) arg(v any) {
	s.args = append(s.args, v)
	if s.dialect == dialect.Postgres {
		s.sb.WriteByte('$')
		s.sb.WriteString(strconv.Itoa(len(s.args)))
		return
	}
	s.sb.WriteByte('?')
}

// DialectBuilder prefixes all root builders with the statement dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a builder factory for the configured dialect.
//
//	sql.Dialect(dialect.Postgres).Select()
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select creates a Selector for the configured dialect.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Insert creates an InsertBuilder for the configured dialect.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{dialect: d.dialect, table: table}
}

// Update creates an UpdateBuilder for the configured dialect.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: d.dialect, table: table}
}

// Delete creates a DeleteBuilder for the configured dialect.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: d.dialect, table: table}
}

// Selector builds a SELECT statement.
type Selector struct {
	dialect string
	columns []string
	table   string
	where   *Predicate
	limit   int
}

// From sets the table of the selector.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Where sets or appends the given predicate. A nil predicate is ignored.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.where != nil {
		s.where = And(s.where, p)
	} else {
		s.where = p
	}
	return s
}

// Limit adds a LIMIT clause to the query.
func (s *Selector) Limit(n int) *Selector {
	s.limit = n
	return s
}

// Query returns statement text and bound arguments.
func (s *Selector) Query() (string, []any) {
	st := &stmt{dialect: s.dialect}
	st.sb.WriteString("SELECT ")
	if len(s.columns) == 0 {
		st.sb.WriteByte('*')
	} else {
		for i, c := range s.columns {
			if i > 0 {
				st.sb.WriteString(", ")
			}
			st.ident(c)
		}
	}
	st.sb.WriteString(" FROM ")
	st.ident(s.table)
	if s.where != nil {
		st.sb.WriteString(" WHERE ")
		s.where.render(st)
	}
	if s.limit > 0 {
		st.sb.WriteString(" LIMIT ")
		st.sb.WriteString(strconv.Itoa(s.limit))
	}
	return st.sb.String(), st.args
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    []any
	returning string
}

// Set adds a column with its bound value, keeping call order.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Returning adds a RETURNING clause. Only rendered on Postgres; the other
// dialects report generated keys through sql.Result.
func (i *InsertBuilder) Returning(column string) *InsertBuilder {
	i.returning = column
	return i
}

// Query returns statement text and bound arguments.
func (i *InsertBuilder) Query() (string, []any) {
	st := &stmt{dialect: i.dialect}
	st.sb.WriteString("INSERT INTO ")
	st.ident(i.table)
	st.sb.WriteString(" (")
	for n, c := range i.columns {
		if n > 0 {
			st.sb.WriteString(", ")
		}
		st.ident(c)
	}
	st.sb.WriteString(") VALUES (")
	for n, v := range i.values {
		if n > 0 {
			st.sb.WriteString(", ")
		}
		st.arg(v)
	}
	st.sb.WriteByte(')')
	if i.returning != "" && i.dialect == dialect.Postgres {
		st.sb.WriteString(" RETURNING ")
		st.ident(i.returning)
	}
	return st.sb.String(), st.args
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	where   *Predicate
}

// Set adds a SET assignment, keeping call order.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where sets or appends the given predicate. A nil predicate is ignored.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if p == nil {
		return u
	}
	if u.where != nil {
		u.where = And(u.where, p)
	} else {
		u.where = p
	}
	return u
}

// Empty reports whether the update has no assignments. Callers must check
// it before Query: executing an UPDATE without SET clauses is invalid SQL,
// so an empty update is skipped rather than rendered.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0
}

// Query returns statement text and bound arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	st := &stmt{dialect: u.dialect}
	st.sb.WriteString("UPDATE ")
	st.ident(u.table)
	st.sb.WriteString(" SET ")
	for n, c := range u.columns {
		if n > 0 {
			st.sb.WriteString(", ")
		}
		st.ident(c)
		st.sb.WriteString(" = ")
		st.arg(u.values[n])
	}
	if u.where != nil {
		st.sb.WriteString(" WHERE ")
		u.where.render(st)
	}
	return st.sb.String(), st.args
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect string
	table   string
	where   *Predicate
}

// Where sets or appends the given predicate. A nil predicate is ignored.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p == nil {
		return d
	}
	if d.where != nil {
		d.where = And(d.where, p)
	} else {
		d.where = p
	}
	return d
}

// Query returns statement text and bound arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	st := &stmt{dialect: d.dialect}
	st.sb.WriteString("DELETE FROM ")
	st.ident(d.table)
	if d.where != nil {
		st.sb.WriteString(" WHERE ")
		d.where.render(st)
	}
	return st.sb.String(), st.args
}
