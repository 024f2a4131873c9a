package tokane

// Builder assembles a Program by hand: one parselet at a time, with
// forward references resolved by reserving a slot before its body is
// known. There is no source-text compiler in this runtime (spec's
// Non-goals exclude one); Builder is the tool a grammar author -- or a
// test, or the CLI's demo grammar -- uses in its place.
type Builder struct {
	prog *Program
}

func NewBuilder() *Builder {
	return &Builder{prog: &Program{}}
}

// AddStatic interns a literal value into the statics table (used for
// argument defaults and Op(LoadStatic)), returning its index.
func (b *Builder) AddStatic(v Value) int {
	b.prog.Statics = append(b.prog.Statics, v)
	return len(b.prog.Statics) - 1
}

// Declare reserves a parselet slot ahead of knowing its body, so a
// recursive or mutually-recursive grammar can reference its own index
// in an Op(Call) before Define fills it in.
func (b *Builder) Declare(name string) int {
	n := name
	b.prog.Parselets = append(b.prog.Parselets, &Parselet{Name: &n})
	return len(b.prog.Parselets) - 1
}

// Define fills in a slot previously returned by Declare (or AddParselet).
func (b *Builder) Define(idx int, signature []Arg, locals int, begin, end, body []Op) {
	p := b.prog.Parselets[idx]
	if len(signature) > locals {
		panic("tokane: signature may not be longer than locals")
	}
	p.Signature = signature
	p.Locals = locals
	p.Begin = begin
	p.End = end
	p.Body = body
}

// AddParselet declares and defines a parselet in one call, for the
// common non-recursive-reference case.
func (b *Builder) AddParselet(name *string, signature []Arg, locals int, begin, end, body []Op) int {
	p := NewParselet(name, signature, locals, begin, end, body)
	b.prog.Parselets = append(b.prog.Parselets, p)
	return len(b.prog.Parselets) - 1
}

// Silence marks a parselet's results as discarded, the builder-side
// equivalent of a grammar rule prefixed to suppress its capture.
func (b *Builder) Silence(idx int) {
	b.prog.Parselets[idx].Silent = true
}

func (b *Builder) SetMain(idx int) {
	b.prog.Main = idx
}

// Build finalizes the assembled Program (computing every parselet's
// Consuming classification) and returns it ready for Runtime.Run.
func (b *Builder) Build() (*Program, error) {
	if err := b.prog.Finalize(); err != nil {
		return nil, err
	}
	return b.prog, nil
}

// Common character classes, the hand-assembly equivalent of the
// builtin charsets a real grammar loader would register automatically.
// There is no Config knob for them; callers use these directly.
func DigitClass() *CharClass {
	return NewCharClassFromRanges([2]rune{'0', '9'})
}

func AlphaClass() *CharClass {
	return NewCharClassFromRanges([2]rune{'a', 'z'}, [2]rune{'A', 'Z'}, [2]rune{'_', '_'})
}

func AlnumClass() *CharClass {
	return NewCharClassFromRanges([2]rune{'a', 'z'}, [2]rune{'A', 'Z'}, [2]rune{'0', '9'}, [2]rune{'_', '_'})
}

func SpaceClass() *CharClass {
	return NewCharClassFromRanges([2]rune{' ', ' '}, [2]rune{'\t', '\t'}, [2]rune{'\n', '\n'}, [2]rune{'\r', '\r'})
}
