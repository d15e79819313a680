package frid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	assert.True(t, Equal(Null(), Null()))
	assert.True(t, Equal(Int(3), Int(3)))
	assert.False(t, Equal(Int(3), Int(4)))
	assert.True(t, Equal(Real(math.NaN()), Real(math.NaN())))
	assert.True(t, Equal(Blob([]byte("ab")), Blob([]byte("ab"))))
	assert.False(t, Equal(Blob([]byte("ab")), Blob([]byte("ac"))))
}

func TestValueArrayCopyOnConstruct(t *testing.T) {
	src := []Value{Int(1), Int(2)}
	v := Array(src)
	src[0] = Int(99)
	require.Equal(t, int64(1), v.Array()[0].Int())
}

func TestMappingOrderPreserved(t *testing.T) {
	m := NewMapping()
	m.Set("b", Int(2))
	m.Set("a", Int(1))
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	m.Delete("b")
	m.Set("b", Int(3))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestMappingEqualityIgnoresOrder(t *testing.T) {
	m1 := NewMapping()
	m1.Set("a", Int(1))
	m1.Set("b", Int(2))
	m2 := NewMapping()
	m2.Set("b", Int(2))
	m2.Set("a", Int(1))
	assert.True(t, Equal(Map(m1), Map(m2)))
}

func TestValueAccessorPanicsOnWrongKind(t *testing.T) {
	assert.Panics(t, func() { Text("x").Int() })
}

func TestNamedEquality(t *testing.T) {
	kw1 := NewMapping()
	kw1.Set("x", Int(1))
	kw2 := NewMapping()
	kw2.Set("x", Int(1))
	a := NewNamed("Point", []Value{Int(1), Int(2)}, kw1)
	b := NewNamed("Point", []Value{Int(1), Int(2)}, kw2)
	assert.True(t, Equal(a, b))
}
