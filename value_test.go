package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthy(t *testing.T) {
	assert.False(t, Void.Truthy())
	assert.False(t, False.Truthy())
	assert.True(t, True.Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, Int(1).Truthy())
	assert.False(t, Str("").Truthy())
	assert.True(t, Str("x").Truthy())
	assert.False(t, FromList(NewList()).Truthy())
	assert.True(t, FromList(NewList(Int(1))).Truthy())
}

func TestListSharedByReference(t *testing.T) {
	l := NewList(Int(1), Int(2))
	v1 := FromList(l)
	v2 := v1
	v2.List().Set(0, Int(99))
	assert.Equal(t, int64(99), v1.List().Get(0).Int())
}

func TestDictInsertionOrderAndRemove(t *testing.T) {
	d := NewDict()
	d.Set("b", Int(2))
	d.Set("a", Int(1))
	assert.Equal(t, []string{"b", "a"}, d.Keys())

	removed, ok := d.Remove("b")
	assert.True(t, ok)
	assert.Equal(t, int64(2), removed.Int())
	assert.Equal(t, []string{"a"}, d.Keys())

	_, ok = d.Remove("missing")
	assert.False(t, ok)
}

func TestValueStringFormatting(t *testing.T) {
	assert.Equal(t, "void", Void.String())
	assert.Equal(t, "true", True.String())
	assert.Equal(t, `"hi"`, Str("hi").String())
	assert.Equal(t, "[1, 2]", FromList(NewList(Int(1), Int(2))).String())
}
