package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceSeverityAllEmpty(t *testing.T) {
	r := NewReaderString("")
	got := reduceSeverity([]Capture{EmptyCapture(), EmptyCapture()}, r)
	assert.Equal(t, Void, got)
}

func TestReduceSeveritySingleValueWins(t *testing.T) {
	r := NewReaderString("")
	caps := []Capture{
		ValueCapture(Int(1), "", 3),
		ValueCapture(Int(2), "", 5),
	}
	got := reduceSeverity(caps, r)
	assert.Equal(t, int64(2), got.Int())
}

func TestReduceSeverityTieBreakBecomesList(t *testing.T) {
	r := NewReaderString("")
	caps := []Capture{
		ValueCapture(Int(1), "", 5),
		ValueCapture(Int(2), "", 5),
	}
	got := reduceSeverity(caps, r)
	assert.Equal(t, KindList, got.Kind())
	assert.Equal(t, 2, got.List().Len())
	assert.Equal(t, int64(1), got.List().Get(0).Int())
	assert.Equal(t, int64(2), got.List().Get(1).Int())
}

func TestReduceSeverityAliasedBecomesDict(t *testing.T) {
	r := NewReaderString("")
	caps := []Capture{
		ValueCapture(Int(1), "a", 5),
		ValueCapture(Int(2), "b", 5),
	}
	got := reduceSeverity(caps, r)
	assert.Equal(t, KindDict, got.Kind())
	v, ok := got.Dict().Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.Int())
}

func TestReduceSeverityOneAliasedAmongManySameSeverityStillDict(t *testing.T) {
	r := NewReaderString("")
	caps := []Capture{
		ValueCapture(Int(1), "", 5),
		ValueCapture(Int(2), "keep", 5),
	}
	got := reduceSeverity(caps, r)
	assert.Equal(t, KindDict, got.Kind())
	_, ok := got.Dict().Get("keep")
	assert.True(t, ok)
}

func TestReduceSeverityIgnoresEmptyCapturesBelowMax(t *testing.T) {
	r := NewReaderString("")
	caps := []Capture{
		EmptyCapture(),
		ValueCapture(Int(1), "", 2),
		ValueCapture(Int(9), "", 7),
	}
	got := reduceSeverity(caps, r)
	assert.Equal(t, int64(9), got.Int())
}

func TestCaptureMaterializeRange(t *testing.T) {
	r := NewReaderString("hello")
	start := r.Tell()
	r.Next()
	r.Next()
	end := r.Tell()
	c := RangeCapture(start, end, "", DefaultSeverity)
	got := c.Materialize(r)
	assert.Equal(t, "he", got.Text())
}
