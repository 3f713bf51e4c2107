package schema

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relmap/relmap/schema/field"
)

// Table is the mapping descriptor of one row type. It is declared once,
// at program start, and validated when a mapper is constructed:
//
//	var userTable = schema.Table[User]{
//		Name: "users",
//		ID:   schema.Int64("user_id", func(u *User) *int64 { return &u.ID }),
//		Columns: []schema.Column[User]{
//			schema.String("name", func(u *User) *string { return &u.Name }),
//			schema.String("email", func(u *User) *string { return &u.Email }),
//		},
//	}
type Table[T any] struct {
	// Name is the stored table name.
	Name string
	// ID is the primary-key column. Exactly one is required, and it must
	// be an int64 column: the entity is considered transient while its
	// key is zero or negative.
	ID Column[T]
	// Columns are the persisted non-key columns, in declaration order.
	Columns []Column[T]
	// NewRecord constructs an empty record for hydration. Defaults to
	// new(T) when nil.
	NewRecord func() *T
}

// Record returns a fresh record for hydration.
func (t Table[T]) Record() *T {
	if t.NewRecord != nil {
		return t.NewRecord()
	}
	return new(T)
}

// Validate checks the descriptor is complete and well-formed. It is called
// once at mapper construction, before any statement is built.
func (t Table[T]) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("schema: missing table name")
	}
	if t.ID.Name == "" || t.ID.Value == nil || t.ID.Scan == nil {
		return fmt.Errorf("schema: table %q: missing primary-key column", t.Name)
	}
	if t.ID.Type != field.TypeInt64 {
		return fmt.Errorf("schema: table %q: primary key %q must be an int64 column, got %s", t.Name, t.ID.Name, t.ID.Type)
	}
	seen := map[string]struct{}{t.ID.Name: {}}
	for _, c := range t.Columns {
		switch {
		case c.Name == "":
			return fmt.Errorf("schema: table %q: column with empty name", t.Name)
		case c.Value == nil || c.Scan == nil:
			return fmt.Errorf("schema: table %q: column %q: missing accessor", t.Name, c.Name)
		case !c.Type.Valid():
			return fmt.Errorf("schema: table %q: column %q: unsupported type %s", t.Name, c.Name, c.Type)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("schema: table %q: duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// ColumnNames returns the stored names of the non-key columns, in
// declaration order.
func (t Table[T]) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column links one field of T to its stored column name and semantic type.
// Value renders the field for statement binding; Scan assigns a value read
// from the database back into the field. Both are produced by the typed
// constructors below.
type Column[T any] struct {
	Name  string
	Type  field.Type
	Value func(*T) (driver.Value, error)
	Scan  func(*T, any) error
}

// Int64 declares an int64 column.
func Int64[T any](name string, f func(*T) *int64) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeInt64,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = 0
			case int64:
				*f(t) = v
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// Int declares an int column. Values are stored as 64-bit integers.
func Int[T any](name string, f func(*T) *int) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeInt64,
		Value: func(t *T) (driver.Value, error) {
			return int64(*f(t)), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = 0
			case int64:
				*f(t) = int(v)
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// String declares a text column.
func String[T any](name string, f func(*T) *string) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeString,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = ""
			case string:
				*f(t) = v
			case []byte:
				*f(t) = string(v)
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// Time declares a date/time column.
func Time[T any](name string, f func(*T) *time.Time) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeTime,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = time.Time{}
			case time.Time:
				*f(t) = v
			case string:
				ts, err := time.Parse(time.RFC3339Nano, v)
				if err != nil {
					return fmt.Errorf("cannot parse %q as time for column %q: %w", v, name, err)
				}
				*f(t) = ts
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// Bool declares a boolean column.
func Bool[T any](name string, f func(*T) *bool) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeBool,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = false
			case bool:
				*f(t) = v
			case int64:
				*f(t) = v != 0
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// Float64 declares a floating-point column.
func Float64[T any](name string, f func(*T) *float64) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeFloat64,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = 0
			case float64:
				*f(t) = v
			case int64:
				*f(t) = float64(v)
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// Bytes declares a binary column. Scanned values are copied, since the
// driver may reuse its buffer on the next row.
func Bytes[T any](name string, f func(*T) *[]byte) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeBytes,
		Value: func(t *T) (driver.Value, error) {
			return *f(t), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = nil
			case []byte:
				b := make([]byte, len(v))
				copy(b, v)
				*f(t) = b
			case string:
				*f(t) = []byte(v)
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}

// UUID declares a uuid.UUID column stored in its text form.
func UUID[T any](name string, f func(*T) *uuid.UUID) Column[T] {
	return Column[T]{
		Name: name,
		Type: field.TypeUUID,
		Value: func(t *T) (driver.Value, error) {
			return f(t).String(), nil
		},
		Scan: func(t *T, v any) error {
			switch v := v.(type) {
			case nil:
				*f(t) = uuid.Nil
			case string:
				u, err := uuid.Parse(v)
				if err != nil {
					return fmt.Errorf("cannot parse %q as uuid for column %q: %w", v, name, err)
				}
				*f(t) = u
			case []byte:
				u, err := uuid.ParseBytes(v)
				if err != nil {
					return fmt.Errorf("cannot parse %q as uuid for column %q: %w", v, name, err)
				}
				*f(t) = u
			default:
				return fmt.Errorf("unexpected type %T for column %q", v, name)
			}
			return nil
		},
	}
}
