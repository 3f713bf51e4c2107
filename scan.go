package relmap

import (
	"fmt"

	"github.com/relmap/relmap/dialect/sql"
	"github.com/relmap/relmap/schema"
	"github.com/relmap/relmap/schema/field"
)

// Rows is a lazy, one-shot sequence of hydrated records over a live result
// cursor. It is not restartable: the cursor is consumed once, and Close
// must be called unless the sequence was drained (Next returning false
// releases the cursor).
//
//	rows, err := users.Query(ctx, nil)
//	if err != nil { ... }
//	defer rows.Close()
//	for rows.Next() {
//	    u, err := rows.Entity()
//	    ...
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows[T any] struct {
	table  schema.Table[T]
	label  string
	rows   sql.Rows
	cols   []*schema.Column[T] // per result column; nil means discard
	dests  []any               // scan carriers, one per result column
	closed bool
	err    error
}

// newRows maps the cursor's result columns onto the table descriptor and
// prepares one scan carrier per column. Result columns without a descriptor
// are drained into a discard sink.
func newRows[T any](table schema.Table[T], label string, rows sql.Rows) (*Rows[T], error) {
	names, err := rows.Columns()
	if err != nil {
		err2 := rows.Close()
		if err2 != nil {
			err = fmt.Errorf("%v: %w", err2, err)
		}
		return nil, NewExecutionError(label, "select", err)
	}
	r := &Rows[T]{
		table: table,
		label: label,
		rows:  rows,
		cols:  make([]*schema.Column[T], len(names)),
		dests: make([]any, len(names)),
	}
	for i, name := range names {
		c := r.column(name)
		r.cols[i] = c
		r.dests[i] = carrier(c)
	}
	return r, nil
}

// column resolves a result column name against the descriptor, primary key
// included.
func (r *Rows[T]) column(name string) *schema.Column[T] {
	if name == r.table.ID.Name {
		return &r.table.ID
	}
	for i := range r.table.Columns {
		if r.table.Columns[i].Name == name {
			return &r.table.Columns[i]
		}
	}
	return nil
}

// carrier returns the scan destination for a column. Typed null carriers
// keep NULL handling explicit; bytes and uuid columns scan through an any
// slot and coerce in the column's Scan closure.
func carrier[T any](c *schema.Column[T]) any {
	if c == nil {
		return new(any)
	}
	switch c.Type {
	case field.TypeInt64:
		return new(sql.NullInt64)
	case field.TypeString:
		return new(sql.NullString)
	case field.TypeTime:
		return new(sql.NullTime)
	case field.TypeBool:
		return new(sql.NullBool)
	case field.TypeFloat64:
		return new(sql.NullFloat64)
	default:
		return new(any)
	}
}

// value unwraps a carrier after a scan. NULL surfaces as nil.
func value(dest any) any {
	switch d := dest.(type) {
	case *sql.NullInt64:
		if d.Valid {
			return d.Int64
		}
	case *sql.NullString:
		if d.Valid {
			return d.String
		}
	case *sql.NullTime:
		if d.Valid {
			return d.Time
		}
	case *sql.NullBool:
		if d.Valid {
			return d.Bool
		}
	case *sql.NullFloat64:
		if d.Valid {
			return d.Float64
		}
	case *any:
		return *d
	}
	return nil
}

// Next advances to the next result row. It returns false when the cursor
// is exhausted or failed; the cursor is released either way.
func (r *Rows[T]) Next() bool {
	if r.closed {
		return false
	}
	if r.rows.Next() {
		return true
	}
	r.err = r.rows.Err()
	_ = r.Close()
	return false
}

// Entity hydrates the current row into a fresh record.
func (r *Rows[T]) Entity() (*T, error) {
	if r.closed {
		return nil, NewExecutionError(r.label, "select", fmt.Errorf("rows are closed"))
	}
	if err := r.rows.Scan(r.dests...); err != nil {
		return nil, NewExecutionError(r.label, "select", err)
	}
	rec := r.table.Record()
	for i, c := range r.cols {
		if c == nil {
			continue
		}
		if err := c.Scan(rec, value(r.dests[i])); err != nil {
			return nil, NewMappingError(r.label, c.Name, err)
		}
	}
	return rec, nil
}

// Err returns the error, if any, encountered while iterating.
func (r *Rows[T]) Err() error {
	return r.err
}

// Close releases the cursor. It is idempotent and safe on all exit paths.
func (r *Rows[T]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}

// All drains the sequence into a slice and closes it.
func (r *Rows[T]) All() ([]*T, error) {
	defer r.Close()
	var out []*T
	for r.Next() {
		rec, err := r.Entity()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := r.Err(); err != nil {
		return nil, NewExecutionError(r.label, "select", err)
	}
	return out, nil
}
