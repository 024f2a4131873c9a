package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDeclareThenDefineResolvesForwardReference(t *testing.T) {
	b := NewBuilder()
	selfIdx := b.Declare("self")
	b.Define(selfIdx, nil, 0, nil, nil, []Op{Call(selfIdx, 0, false)})
	b.SetMain(selfIdx)

	prog, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, selfIdx, prog.Main)
	assert.Equal(t, selfIdx, prog.Parselets[selfIdx].Body[0].ParseletIdx)
}

func TestBuilderDefinePanicsWhenSignatureExceedsLocals(t *testing.T) {
	b := NewBuilder()
	idx := b.Declare("bad")
	assert.Panics(t, func() {
		b.Define(idx, []Arg{{Name: "a", Default: -1}, {Name: "b", Default: -1}}, 1, nil, nil, nil)
	})
}

func TestBuilderAddStaticReturnsStableIndex(t *testing.T) {
	b := NewBuilder()
	i1 := b.AddStatic(Int(1))
	i2 := b.AddStatic(Str("two"))
	assert.Equal(t, 0, i1)
	assert.Equal(t, 1, i2)
}

func TestBuiltinCharClasses(t *testing.T) {
	assert.True(t, DigitClass().Has('5'))
	assert.True(t, AlphaClass().Has('_'))
	assert.True(t, AlnumClass().Has('9'))
	assert.True(t, SpaceClass().Has('\t'))
	assert.False(t, SpaceClass().Has('a'))
}
