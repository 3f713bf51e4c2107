package field

// A Type tags a column with its semantic type. The tag decides which scan
// carrier the hydrator uses and how values are coerced between the stored
// column and the Go field.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeInt64
	TypeString
	TypeTime
	TypeBool
	TypeFloat64
	TypeBytes
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt64:   "int64",
	TypeString:  "string",
	TypeTime:    "time.Time",
	TypeBool:    "bool",
	TypeFloat64: "float64",
	TypeBytes:   "[]byte",
	TypeUUID:    "uuid.UUID",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return "invalid"
}

// Valid reports if the given type is a known column type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt64 || t == TypeFloat64
}
