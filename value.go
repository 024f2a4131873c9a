package tokane

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josharian/intern"
)

// Kind identifies which variant of the tagged Value union is populated.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindDict
	KindParselet
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindParselet:
		return "parselet"
	default:
		return "unknown"
	}
}

// Value is the tagged runtime value shared throughout the capture
// stack, statics table and Dict/List contents. List and Dict carry
// their payload behind a pointer, so copies of a Value alias the same
// underlying sequence/mapping the way the spec's reference-counted
// values do; Go's garbage collector stands in for the explicit
// refcounting scheme the spec leaves to the implementer.
type Value struct {
	kind     Kind
	b        bool
	i        int64
	f        float64
	s        string
	list     *List
	dict     *Dict
	parselet *Parselet
}

var Void = Value{kind: KindVoid}
var True = Value{kind: KindBool, b: true}
var False = Value{kind: KindBool, b: false}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Str(s string) Value    { return Value{kind: KindString, s: s} }

func FromList(l *List) Value {
	return Value{kind: KindList, list: l}
}
func FromDict(d *Dict) Value {
	return Value{kind: KindDict, dict: d}
}
func FromParselet(p *Parselet) Value {
	return Value{kind: KindParselet, parselet: p}
}

func (v Value) Kind() Kind           { return v.kind }
func (v Value) Bool() bool           { return v.b }
func (v Value) Int() int64           { return v.i }
func (v Value) Float() float64       { return v.f }
func (v Value) Text() string         { return v.s }
func (v Value) List() *List          { return v.list }
func (v Value) Dict() *Dict          { return v.dict }
func (v Value) Parselet() *Parselet  { return v.parselet }

// Truthy implements the boolean coercion used by ForwardIfTrue and
// ForwardIfFalse: Void, False, 0, 0.0, "" and an empty List or Dict
// are falsy, everything else truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindVoid:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return v.list.Len() > 0
	case KindDict:
		return v.dict.Len() > 0
	default:
		return true
	}
}

// String renders a debug representation of v; it is the formatter
// behind Op(Print) and CLI disassembly, not a parse result.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.list.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindDict:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range v.dict.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", k, v.dict.m[k].String())
		}
		sb.WriteByte('}')
		return sb.String()
	case KindParselet:
		if v.parselet.Name != nil {
			return "parselet<" + *v.parselet.Name + ">"
		}
		return "parselet<anonymous>"
	default:
		return "?"
	}
}

// List is a mutable, ordered sequence of Values shared by reference.
type List struct {
	items []Value
}

func NewList(items ...Value) *List {
	return &List{items: append([]Value(nil), items...)}
}

func (l *List) Len() int           { return len(l.items) }
func (l *List) Get(i int) Value    { return l.items[i] }
func (l *List) Set(i int, v Value) { l.items[i] = v }
func (l *List) Append(v Value)     { l.items = append(l.items, v) }
func (l *List) Items() []Value     { return l.items }

// Dict is a mutable, insertion-ordered string-keyed map shared by
// reference. Keys are interned, since capture aliases and emit names
// recur heavily across a single program's parses.
type Dict struct {
	keys []string
	m    map[string]Value
}

func NewDict() *Dict {
	return &Dict{m: make(map[string]Value)}
}

func (d *Dict) Len() int       { return len(d.keys) }
func (d *Dict) Keys() []string { return d.keys }

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

func (d *Dict) Set(key string, v Value) {
	key = intern.String(key)
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = v
}

func (d *Dict) Remove(key string) (Value, bool) {
	v, ok := d.m[key]
	if !ok {
		return Value{}, false
	}
	delete(d.m, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return v, true
}
