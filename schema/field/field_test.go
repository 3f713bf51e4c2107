package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	assert.Equal(t, "int64", TypeInt64.String())
	assert.Equal(t, "string", TypeString.String())
	assert.Equal(t, "time.Time", TypeTime.String())
	assert.Equal(t, "uuid.UUID", TypeUUID.String())
	assert.Equal(t, "invalid", TypeInvalid.String())
	assert.Equal(t, "invalid", Type(250).String())
}

func TestTypeValid(t *testing.T) {
	assert.False(t, TypeInvalid.Valid())
	assert.False(t, Type(250).Valid())
	for _, typ := range []Type{TypeInt64, TypeString, TypeTime, TypeBool, TypeFloat64, TypeBytes, TypeUUID} {
		assert.True(t, typ.Valid(), typ.String())
	}
}

func TestTypeNumeric(t *testing.T) {
	assert.True(t, TypeInt64.Numeric())
	assert.True(t, TypeFloat64.Numeric())
	assert.False(t, TypeString.Numeric())
	assert.False(t, TypeBool.Numeric())
}
