package tokane

// BuildArithmeticGrammar hand-assembles the example grammar used
// throughout this runtime's design notes:
//
//	expr   := expr '+' term | expr '-' term | term
//	term   := term '*' factor | term '/' factor | factor
//	factor := '(' expr ')' | 'x'
//
// expr and term are both directly left-recursive, which is exactly
// the case the seed/grow loop in Parselet.Run exists for: without it,
// `expr '+' term` would recurse into expr before consuming anything
// and blow the stack instead of parsing left-associatively. A
// top-level "program" parselet wraps expr so the left recursion goes
// through the ordinary (non-main) call path -- the main parselet
// itself never participates in left-recursion growth, it has its own
// repeat-until-input-exhausted loop instead.
func BuildArithmeticGrammar() (*Program, error) {
	b := NewBuilder()

	exprIdx := b.Declare("expr")
	termIdx := b.Declare("term")
	factorIdx := b.Declare("factor")
	programIdx := b.Declare("program")

	b.Define(exprIdx, nil, 0, nil, nil, []Op{
		Alt(
			[]Op{Call(exprIdx, 0, false), Touch("+"), Call(termIdx, 0, false), Create("add")},
			[]Op{Call(exprIdx, 0, false), Touch("-"), Call(termIdx, 0, false), Create("sub")},
			[]Op{Call(termIdx, 0, false), Collect(DefaultSeverity)},
		),
	})

	b.Define(termIdx, nil, 0, nil, nil, []Op{
		Alt(
			[]Op{Call(termIdx, 0, false), Touch("*"), Call(factorIdx, 0, false), Create("mul")},
			[]Op{Call(termIdx, 0, false), Touch("/"), Call(factorIdx, 0, false), Create("div")},
			[]Op{Call(factorIdx, 0, false), Collect(DefaultSeverity)},
		),
	})

	b.Define(factorIdx, nil, 0, nil, nil, []Op{
		Alt(
			[]Op{Touch("("), Call(exprIdx, 0, false), Touch(")"), Collect(DefaultSeverity)},
			[]Op{Match("x"), Collect(DefaultSeverity)},
		),
	})

	b.Define(programIdx, nil, 0, nil, nil, []Op{
		Call(exprIdx, 0, false),
		Collect(DefaultSeverity),
	})

	b.SetMain(programIdx)

	return b.Build()
}
