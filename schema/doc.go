// Package schema declares the mapping descriptor of a row type.
//
// A Table binds a Go type to one database table: the stored table name,
// exactly one integer primary-key column, and an ordered list of typed
// columns. Descriptors are plain values declared once at program start;
// relmap.New validates them before any statement is built, so a malformed
// descriptor fails at initialization rather than at call time.
//
// Columns are declared through typed constructors that pair a stored
// column name with a field accessor:
//
//	schema.String("email", func(u *User) *string { return &u.Email })
//
// The constructor derives the column's semantic type tag and the two
// closures the mapper needs: rendering the field as a bound statement
// argument, and assigning a scanned database value back into the field.
package schema
