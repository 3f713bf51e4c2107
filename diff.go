package relmap

import (
	"bytes"
	"database/sql/driver"
	"time"
)

// assignment is one SET clause of a diff-based update: a stored column name
// and the value to bind for it.
type assignment struct {
	column string
	value  driver.Value
}

// changedColumns compares the entity being persisted against the stored row
// and returns assignments for the columns that differ, in declaration order.
//
// A column whose stored-side value cannot be read counts as changed; it is
// rewritten from the entity rather than silently dropped. If the entity's
// own value cannot be rendered there is nothing to bind, so the operation
// fails with a MappingError instead.
func (m *Mapper[T]) changedColumns(entity, stored *T) ([]assignment, error) {
	var set []assignment
	for i := range m.table.Columns {
		c := &m.table.Columns[i]
		cur, err := c.Value(entity)
		if err != nil {
			return nil, NewMappingError(m.label, c.Name, err)
		}
		old, err := c.Value(stored)
		if err != nil || !valuesEqual(cur, old) {
			set = append(set, assignment{column: c.Name, value: cur})
		}
	}
	return set, nil
}

// valuesEqual compares two rendered driver values.
func valuesEqual(a, b driver.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}
