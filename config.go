package tokane

import "fmt"

// Config is a small key/value map carrying engine-wide knobs,
// the same shape the teacher's grammar-loader config used for its own
// settings.
type Config map[string]*cfgVal

// NewConfig creates a configuration primed with the engine's defaults:
// a soft recursion depth limit, the default capture severity used by
// Collect/Create when a compiled Op doesn't override it, and whether
// Op(Print) is allowed to emit anything.
func NewConfig() *Config {
	m := make(Config)
	m.SetInt("engine.max_depth", 4096)
	m.SetInt("engine.default_severity", int(DefaultSeverity))
	m.SetBool("engine.print_enabled", true)
	return &m
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("tokane: can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("tokane: can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Bool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Int)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_String)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("tokane: bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("tokane: int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("tokane: string setting `%s` does not exist", path))
}

// Apply wires the depth limit and the print gate into a freshly created
// Runtime. engine.default_severity is not read: Create always uses
// DefaultSeverity and Collect uses its own operand.
func (c *Config) Apply(rt *Runtime) {
	rt.MaxDepth = c.GetInt("engine.max_depth")
	rt.printEnabled = c.GetBool("engine.print_enabled")
}
