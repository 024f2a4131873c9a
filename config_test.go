package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, 4096, c.GetInt("engine.max_depth"))
	assert.Equal(t, int(DefaultSeverity), c.GetInt("engine.default_severity"))
	assert.True(t, c.GetBool("engine.print_enabled"))
}

func TestConfigApplyWiresRuntime(t *testing.T) {
	c := NewConfig()
	c.SetInt("engine.max_depth", 16)
	c.SetBool("engine.print_enabled", false)

	rt := NewRuntime(&Program{}, NewReaderString(""))
	c.Apply(rt)

	assert.Equal(t, 16, rt.MaxDepth)
	assert.False(t, rt.printEnabled)
}

func TestConfigTypeMismatchPanics(t *testing.T) {
	c := NewConfig()
	assert.Panics(t, func() { c.GetString("engine.max_depth") })
}

func TestConfigMissingKeyPanics(t *testing.T) {
	c := NewConfig()
	assert.Panics(t, func() { c.GetInt("nope") })
}
