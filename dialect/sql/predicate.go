package sql

// Predicate is a structured WHERE clause. Values always travel as bound
// arguments; predicate text never embeds caller data.
type Predicate struct {
	fns []func(*stmt)
}

// P creates a new predicate from the given render steps.
func P(fns ...func(*stmt)) *Predicate {
	return &Predicate{fns: fns}
}

func (p *Predicate) render(st *stmt) {
	for _, f := range p.fns {
		f(st)
	}
}

func binary(column, op string, v any) *Predicate {
	return P(func(st *stmt) {
		st.ident(column)
		st.sb.WriteString(" " + op + " ")
		st.arg(v)
	})
}

// EQ returns a column = value predicate.
func EQ(column string, v any) *Predicate { return binary(column, "=", v) }

// NEQ returns a column <> value predicate.
func NEQ(column string, v any) *Predicate { return binary(column, "<>", v) }

// GT returns a column > value predicate.
func GT(column string, v any) *Predicate { return binary(column, ">", v) }

// GTE returns a column >= value predicate.
func GTE(column string, v any) *Predicate { return binary(column, ">=", v) }

// LT returns a column < value predicate.
func LT(column string, v any) *Predicate { return binary(column, "<", v) }

// LTE returns a column <= value predicate.
func LTE(column string, v any) *Predicate { return binary(column, "<=", v) }

// Like returns a column LIKE pattern predicate.
func Like(column, pattern string) *Predicate { return binary(column, "LIKE", pattern) }

// In returns a column IN (...) predicate. An empty value list renders as
// FALSE, matching no rows.
func In(column string, vs ...any) *Predicate {
	return P(func(st *stmt) {
		if len(vs) == 0 {
			st.sb.WriteString("FALSE")
			return
		}
		st.ident(column)
		st.sb.WriteString(" IN (")
		for i, v := range vs {
			if i > 0 {
				st.sb.WriteString(", ")
			}
			st.arg(v)
		}
		st.sb.WriteByte(')')
	})
}

// NotIn returns a column NOT IN (...) predicate. An empty value list renders
// as TRUE, matching all rows.
func NotIn(column string, vs ...any) *Predicate {
	return P(func(st *stmt) {
		if len(vs) == 0 {
			st.sb.WriteString("TRUE")
			return
		}
		st.ident(column)
		st.sb.WriteString(" NOT IN (")
		for i, v := range vs {
			if i > 0 {
				st.sb.WriteString(", ")
			}
			st.arg(v)
		}
		st.sb.WriteByte(')')
	})
}

// IsNull returns a column IS NULL predicate.
func IsNull(column string) *Predicate {
	return P(func(st *stmt) {
		st.ident(column)
		st.sb.WriteString(" IS NULL")
	})
}

// NotNull returns a column IS NOT NULL predicate.
func NotNull(column string) *Predicate {
	return P(func(st *stmt) {
		st.ident(column)
		st.sb.WriteString(" IS NOT NULL")
	})
}

// And joins the given predicates with AND.
func And(ps ...*Predicate) *Predicate {
	return compound("AND", ps)
}

// Or joins the given predicates with OR.
func Or(ps ...*Predicate) *Predicate {
	return compound("OR", ps)
}

// Not negates the given predicate.
func Not(p *Predicate) *Predicate {
	return P(func(st *stmt) {
		st.sb.WriteString("NOT (")
		p.render(st)
		st.sb.WriteByte(')')
	})
}

func compound(op string, ps []*Predicate) *Predicate {
	if len(ps) == 1 {
		return ps[0]
	}
	return P(func(st *stmt) {
		for i, p := range ps {
			if i > 0 {
				st.sb.WriteString(" " + op + " ")
			}
			st.sb.WriteByte('(')
			p.render(st)
			st.sb.WriteByte(')')
		}
	})
}
