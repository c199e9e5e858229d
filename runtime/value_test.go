package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlodf/pansql/runtime"
)

func TestValueOfAndNull(t *testing.T) {
	v := runtime.ValueOf(int32(7))
	assert.False(t, v.IsNull())
	assert.Equal(t, int32(7), v.Raw())

	n := runtime.Null()
	assert.True(t, n.IsNull())
	assert.Nil(t, n.Raw())
}

func TestLiteralRawParsesNumericOrString(t *testing.T) {
	assert.Equal(t, float64(42), runtime.Literal("42").Raw())
	assert.Equal(t, "bob", runtime.Literal("'bob'").Raw())
}

func TestCompareNumeric(t *testing.T) {
	a := runtime.ValueOf(int32(5))
	b := runtime.ValueOf(int32(10))
	assert.True(t, runtime.Compare("lt", a, b))
	assert.False(t, runtime.Compare("gt", a, b))
	assert.True(t, runtime.Compare("neq", a, b))
	assert.False(t, runtime.Compare("eq", a, b))
}

func TestCompareLiteralCoercedAgainstColumn(t *testing.T) {
	col := runtime.ValueOf(int32(1))
	lit := runtime.Literal("1")
	assert.True(t, runtime.Compare("eq", col, lit))
	assert.True(t, runtime.Compare("eq", lit, col))
}

func TestCompareString(t *testing.T) {
	a := runtime.ValueOf("alice")
	b := runtime.Literal("'alice'")
	assert.True(t, runtime.Compare("eq", a, b))
	assert.True(t, runtime.Compare("neq", a, runtime.Literal("'bob'")))
}
