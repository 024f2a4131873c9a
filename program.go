package tokane

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"

	"github.com/parsekit/tokane/ascii"
)

// Program is a complete, already-assembled parselet graph: every
// parselet a grammar compiles to, the literal/default-argument statics
// table they share, and the index of the parselet execution begins
// at. Building a Program by hand (rather than compiling source text
// into one) is the builder's job; Program only owns what the VM needs
// to run one.
type Program struct {
	Parselets []*Parselet
	Statics   []Value
	Main      int
}

// Finalize computes each parselet's Consuming classification (spec
// §4.6): whether it's a grammar production at all, whether it can
// match without consuming input, and whether it can recurse into
// itself before consuming anything. It must run once before a Program
// is handed to Runtime.Run; parselets start out with a nil Consuming,
// which Parselet.Run would otherwise treat as a non-consuming function
// and skip memoization for entirely.
func (prog *Program) Finalize() error {
	var messages []string

	for i, p := range prog.Parselets {
		for _, target := range collectCallTargets(p.Body) {
			if target < 0 || target >= len(prog.Parselets) {
				messages = append(messages, fmt.Sprintf(
					"parselet %s: call to out-of-range parselet index %d", parseletLabel(i, p), target))
			}
		}
	}
	if prog.Main < 0 || prog.Main >= len(prog.Parselets) {
		messages = append(messages, fmt.Sprintf("program: main index %d out of range", prog.Main))
	} else if len(prog.Parselets[prog.Main].Signature) != 0 {
		messages = append(messages, "program: main parselet may not declare parameters")
	}
	if len(messages) > 0 {
		// Sorted so Finalize's diagnostics read the same way across
		// runs regardless of map/slice iteration order upstream.
		slices.Sort(messages)
		var errs *multierror.Error
		for _, m := range messages {
			errs = multierror.Append(errs, errors.New(m))
		}
		return errs
	}

	n := len(prog.Parselets)
	nullable := make([]bool, n)
	leftCorners := make([][]int, n)

	for {
		changed := false
		for i, p := range prog.Parselets {
			prefix := append(append([]Op(nil), p.Begin...), p.Body...)
			isNullable, corners := analyzePrefix(prefix, nullable)
			if isNullable != nullable[i] {
				nullable[i] = isNullable
				changed = true
			}
			if !sameIntSet(corners, leftCorners[i]) {
				leftCorners[i] = corners
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	consumes := make([]bool, n)
	for {
		changed := false
		for i, p := range prog.Parselets {
			if consumes[i] {
				continue
			}
			if anyConsumingOp(p.Begin, consumes) || anyConsumingOp(p.Body, consumes) || anyConsumingOp(p.End, consumes) {
				consumes[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	leftRec := make([]bool, n)
	for i := range prog.Parselets {
		if reachesSelf(i, leftCorners) {
			leftRec[i] = true
		}
	}

	for i, p := range prog.Parselets {
		if !consumes[i] {
			p.Consuming = nil
			continue
		}
		p.Consuming = &Consuming{LeftRec: leftRec[i], Nullable: nullable[i]}
	}

	return nil
}

func parseletLabel(i int, p *Parselet) string {
	if p.Name != nil {
		return fmt.Sprintf("#%d(%s)", i, *p.Name)
	}
	return fmt.Sprintf("#%d(anonymous)", i)
}

func sameIntSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

// reachesSelf reports whether node i is part of a cycle in the
// left-corner graph, i.e. whether it is (transitively) its own
// left-corner -- the definition of left recursion.
func reachesSelf(start int, edges [][]int) bool {
	visited := make(map[int]bool)
	var dfs func(node int) bool
	dfs = func(node int) bool {
		for _, next := range edges[node] {
			if next == start {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(start)
}

// analyzePrefix walks ops from the start and reports (a) whether the
// whole sequence can complete without consuming any input, and (b)
// the set of parselets that could be invoked as the very first call
// along some path through the sequence -- its left corners. nullable
// gives the current fixpoint guess for every parselet's own
// nullability, since the two computations are mutually recursive.
func analyzePrefix(ops []Op, nullable []bool) (bool, []int) {
	corners := []int{}
	stillAtStart := true

	for i := range ops {
		if !stillAtStart {
			break
		}
		op := &ops[i]

		switch op.Kind {
		case OpChar, OpChars, OpMatch, OpTouch:
			stillAtStart = false

		case OpUntilChar:
			// may consume zero characters; doesn't end the prefix

		case OpCall, OpTryCall:
			if op.Kind == OpCall {
				corners = append(corners, op.ParseletIdx)
				if op.ParseletIdx < 0 || op.ParseletIdx >= len(nullable) || !nullable[op.ParseletIdx] {
					stillAtStart = false
				}
			}
			// TryCall's target is a runtime value, not known statically;
			// conservatively treat it as ending the prefix.
			if op.Kind == OpTryCall {
				stillAtStart = false
			}

		case OpAlt:
			altNullable := false
			for _, alt := range op.Alts {
				subNullable, subCorners := analyzePrefix(alt, nullable)
				corners = append(corners, subCorners...)
				if subNullable {
					altNullable = true
				}
			}
			if !altNullable {
				stillAtStart = false
			}

		case OpLoop:
			_, subCorners := analyzePrefix(op.Body, nullable)
			corners = append(corners, subCorners...)

		case OpExpect:
			subNullable, subCorners := analyzePrefix([]Op{*op.Inner}, nullable)
			corners = append(corners, subCorners...)
			if !subNullable {
				stillAtStart = false
			}

		default:
			// control/stack/variable/semantic ops neither consume nor call
		}
	}

	return stillAtStart, corners
}

func collectCallTargets(ops []Op) []int {
	var out []int
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case OpCall:
			out = append(out, op.ParseletIdx)
		case OpAlt:
			for _, alt := range op.Alts {
				out = append(out, collectCallTargets(alt)...)
			}
		case OpLoop:
			out = append(out, collectCallTargets(op.Body)...)
		case OpExpect:
			out = append(out, collectCallTargets([]Op{*op.Inner})...)
		}
	}
	return out
}

// anyConsumingOp reports whether ops contains a consuming op anywhere
// (not just along a nullable prefix), or a call into a parselet
// already known to consume.
func anyConsumingOp(ops []Op, consumes []bool) bool {
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case OpChar, OpChars, OpMatch, OpTouch, OpUntilChar:
			return true
		case OpCall:
			if op.ParseletIdx >= 0 && op.ParseletIdx < len(consumes) && consumes[op.ParseletIdx] {
				return true
			}
		case OpAlt:
			for _, alt := range op.Alts {
				if anyConsumingOp(alt, consumes) {
					return true
				}
			}
		case OpLoop:
			if anyConsumingOp(op.Body, consumes) {
				return true
			}
		case OpExpect:
			if anyConsumingOp([]Op{*op.Inner}, consumes) {
				return true
			}
		}
	}
	return false
}

// Disasm renders a Program as a readable instruction listing, adapted
// from the teacher's ASM printer: one indented block per parselet,
// syntax-highlighted with the ascii package's default theme the same
// way the teacher colors its own bytecode dumps.
func (prog *Program) Disasm() string {
	// The format hook dims instructions that exist only as placeholders
	// (Op(Nop)) so a listing full of real work doesn't read the same as
	// one padded out with filler.
	tp := newTreePrinter(func(input string, op Op) string {
		if op.Kind == OpNop {
			return ascii.Color(ascii.Gray, "%s", input)
		}
		return input
	})

	for i, p := range prog.Parselets {
		name := "anonymous"
		if p.Name != nil {
			name = *p.Name
		}
		marker := ""
		if i == prog.Main {
			marker = " (main)"
		}
		tp.writel(ascii.Color(ascii.DefaultTheme.Label, "parselet #%d %s%s", i, name, marker))
		tp.indent("  ")
		if p.Consuming != nil {
			tp.pwritel(ascii.Color(ascii.DefaultTheme.Comment,
				"; consuming leftrec=%v nullable=%v", p.Consuming.LeftRec, p.Consuming.Nullable))
		} else {
			tp.pwritel(ascii.Color(ascii.DefaultTheme.Comment, "; function"))
		}
		disasmBlock(tp, "begin", p.Begin)
		disasmBlock(tp, "body", p.Body)
		disasmBlock(tp, "end", p.End)
		tp.unindent()
	}

	return tp.output.String()
}

func disasmBlock(tp *treePrinter[Op], label string, ops []Op) {
	if len(ops) == 0 {
		return
	}
	tp.pwritel(ascii.Color(ascii.DefaultTheme.Accent, "%s:", label))
	tp.indent("  ")
	for i, op := range ops {
		tp.pfwritel(op, fmt.Sprintf("%3d  %s", i, disasmOp(op)))
	}
	tp.unindent()
}

func disasmOp(op Op) string {
	var sb strings.Builder
	sb.WriteString(ascii.Color(ascii.DefaultTheme.Operator, "%s", op.Kind))
	switch op.Kind {
	case OpForward, OpForwardIfTrue, OpForwardIfFalse, OpPushAddr, OpLoadStatic,
		OpLoadFast, OpStoreFast, OpLoadGlobal, OpStoreGlobal:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Operand, "%d", op.N))
	case OpPush:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Literal, "%s", op.Value.String()))
	case OpCollect:
		fmt.Fprintf(&sb, " severity=%d", op.N)
	case OpMatch, OpTouch:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Literal, "\"%s\"", escapeLiteral(op.Literal)))
	case OpChar, OpChars:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Span, "%s", op.Class))
	case OpUntilChar:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Span, "%s", op.Class))
	case OpLoadCaptureName, OpStoreCaptureName, OpCreate, OpLexeme:
		fmt.Fprintf(&sb, " %s", ascii.Color(ascii.DefaultTheme.Label, "%s", op.Name))
	case OpCall:
		fmt.Fprintf(&sb, " #%d argc=%d nargs=%v", op.ParseletIdx, op.N, op.HasNargs)
	case OpTryCall:
		fmt.Fprintf(&sb, " argc=%d nargs=%v", op.N, op.HasNargs)
	case OpAlt:
		fmt.Fprintf(&sb, " (%d alternatives)", len(op.Alts))
	case OpLoop:
		fmt.Fprintf(&sb, " (%d ops)", len(op.Body))
	case OpExpect:
		fmt.Fprintf(&sb, " %s", disasmOp(*op.Inner))
	}
	return sb.String()
}
