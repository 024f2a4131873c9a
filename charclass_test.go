package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharClassMembership(t *testing.T) {
	cc := DigitClass()
	assert.True(t, cc.Has('0'))
	assert.True(t, cc.Has('9'))
	assert.False(t, cc.Has('a'))
}

func TestCharClassGrowsForHighCodepoints(t *testing.T) {
	cc := NewCharClass()
	cc.Add(0x1F600) // outside ASCII/Latin1/BMP, forces the widest tier
	assert.True(t, cc.Has(0x1F600))
	assert.False(t, cc.Has('a'))
}

func TestCharClassStringCompressesRanges(t *testing.T) {
	cc := NewCharClassFromRanges([2]rune{'a', 'c'})
	assert.Equal(t, "[a..c]", cc.String())
}
