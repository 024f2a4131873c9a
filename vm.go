package tokane

import (
	"unicode/utf8"
)

// executeOps runs one linear op sequence (a parselet's begin, body or
// end phase, or a nested Alt/Loop/Expect body) against ctx, the VM
// main loop spec §4.2 describes. It is purely instruction-level: it
// performs no memoization and knows nothing about left recursion --
// that lives entirely in Parselet.Run (spec §4.5).
//
// Literal values, locals, globals and captures all live on the same
// shared Runtime.Stack; Push/Clone/Drop/LoadFast/... manipulate its
// tail exactly like captures do, so an in-flight boolean test (e.g.
// inside Op(Alt)'s nested phases) and an already-produced capture can
// coexist in the same frame until Collect/Create reduce them.
func executeOps(ops []Op, ctx *Context) (Accept, error) {
	ip := 0
	for ip < len(ops) {
		op := &ops[ip]
		accept, err := executeOne(op, ctx)
		if err != nil {
			return Accept{}, err
		}
		switch accept.Kind {
		case AcceptNext:
			switch op.Kind {
			case OpForward:
				ip += 1 + op.N
			case OpForwardIfTrue, OpForwardIfFalse:
				ip += 1 + int(accept.Value.Int())
			default:
				ip++
			}
			continue
		default:
			return accept, nil
		}
	}
	return NextAccept(), nil
}

// executeOne dispatches a single Op. Its Accept return uses Kind ==
// AcceptNext with accept.Value carrying a jump delta only in the two
// forward-if cases; every other terminal Accept/Reject ends the
// calling sequence immediately, matching §4.2 step 3.
func executeOne(op *Op, ctx *Context) (Accept, error) {
	rt := ctx.Runtime
	top := func() Capture { return rt.Stack[len(rt.Stack)-1] }
	pop := func() Capture {
		c := rt.Stack[len(rt.Stack)-1]
		rt.Stack = rt.Stack[:len(rt.Stack)-1]
		return c
	}
	push := func(c Capture) { rt.Stack = append(rt.Stack, c) }
	popValue := func() Value { return pop().Materialize(rt.Reader) }

	switch op.Kind {
	case OpNop:
		return NextAccept(), nil

	case OpForward:
		return NextAccept(), nil

	case OpForwardIfTrue:
		cond := popValue().Truthy()
		delta := 0
		if cond {
			delta = op.N
		}
		return Accept{Kind: AcceptNext, Value: Int(int64(delta))}, nil

	case OpForwardIfFalse:
		cond := popValue().Truthy()
		delta := 0
		if !cond {
			delta = op.N
		}
		return Accept{Kind: AcceptNext, Value: Int(int64(delta))}, nil

	case OpSkip:
		return Accept{}, SkipReject()

	case OpAccept:
		if op.N != 0 {
			return PushAccept(ValueCapture(op.Value, "", DefaultSeverity)), nil
		}
		return NextAccept(), nil

	case OpReturn:
		return ReturnAccept(op.Value, op.N != 0), nil

	case OpReject:
		return Accept{}, NextReject()

	case OpBreak:
		return BreakAccept(op.Value, op.N != 0), nil

	case OpContinue:
		return ContinueAccept(), nil

	case OpFrame:
		mark := len(rt.Stack) - op.N
		ctx.frameMarks = append(ctx.frameMarks, mark)
		return NextAccept(), nil

	case OpClose:
		n := len(ctx.frameMarks)
		mark := ctx.frameMarks[n-1]
		ctx.frameMarks = ctx.frameMarks[:n-1]
		var result *Capture
		if len(rt.Stack) > mark {
			c := rt.Stack[len(rt.Stack)-1]
			result = &c
		}
		ctx.truncateTo(mark)
		if result != nil {
			push(*result)
		}
		return NextAccept(), nil

	case OpReset:
		rt.Reader.Reset(ctx.ReaderStart)
		return NextAccept(), nil

	case OpCollect:
		n := len(ctx.frameMarks)
		floor := ctx.CaptureStart
		if n > 0 {
			floor = ctx.frameMarks[n-1]
		}
		captured := append([]Capture(nil), rt.Stack[floor:]...)
		ctx.truncateTo(floor)
		v := reduceSeverity(captured, rt.Reader)
		return PushAccept(ValueCapture(v, "", uint8(op.N))), nil

	case OpCommit:
		rt.Reader.Commit()
		return NextAccept(), nil

	case OpClone:
		push(top())
		return NextAccept(), nil

	case OpDrop:
		pop()
		return NextAccept(), nil

	case OpPush:
		push(ValueCapture(op.Value, "", 0))
		return NextAccept(), nil

	case OpPushVoid:
		push(ValueCapture(Void, "", 0))
		return NextAccept(), nil

	case OpPushTrue:
		push(ValueCapture(True, "", 0))
		return NextAccept(), nil

	case OpPushFalse:
		push(ValueCapture(False, "", 0))
		return NextAccept(), nil

	case OpPushAddr:
		push(ValueCapture(Int(int64(op.N)), "", 0))
		return NextAccept(), nil

	case OpLoadStatic:
		if op.N < 0 || op.N >= len(rt.Program.Statics) {
			panic("tokane: load_static index out of range")
		}
		push(ValueCapture(rt.Program.Statics[op.N], "", 0))
		return NextAccept(), nil

	case OpLoadFast:
		push(ValueCapture(ctx.LoadFast(op.N), "", 0))
		return NextAccept(), nil

	case OpStoreFast:
		ctx.StoreFast(op.N, popValue())
		return NextAccept(), nil

	case OpLoadGlobal:
		push(ValueCapture(ctx.LoadGlobal(op.N), "", 0))
		return NextAccept(), nil

	case OpStoreGlobal:
		ctx.StoreGlobal(op.N, popValue())
		return NextAccept(), nil

	case OpLoadCapture:
		idx := int(popValue().Int())
		v, _ := ctx.LoadCaptureIndex(idx)
		push(ValueCapture(v, "", 0))
		return NextAccept(), nil

	case OpStoreCapture:
		v := popValue()
		idx := int(popValue().Int())
		ctx.StoreCaptureIndex(idx, v)
		return NextAccept(), nil

	case OpLoadCaptureName:
		v, _ := ctx.LoadCaptureName(op.Name)
		push(ValueCapture(v, "", 0))
		return NextAccept(), nil

	case OpStoreCaptureName:
		ctx.StoreCaptureName(op.Name, popValue())
		return NextAccept(), nil

	case OpChar:
		start := rt.Reader.Tell()
		c, ok := rt.Reader.Peek()
		if !ok || !op.Class.Has(c) {
			return Accept{}, NextReject()
		}
		rt.Reader.Next()
		end := rt.Reader.Tell()
		push(RangeCapture(start, end, "", 0))
		return NextAccept(), nil

	case OpChars:
		start := rt.Reader.Tell()
		for {
			c, ok := rt.Reader.Peek()
			if !ok || !op.Class.Has(c) {
				break
			}
			rt.Reader.Next()
		}
		end := rt.Reader.Tell()
		if end.Byte == start.Byte {
			return Accept{}, NextReject()
		}
		push(RangeCapture(start, end, "", 0))
		return NextAccept(), nil

	case OpUntilChar:
		start := rt.Reader.Tell()
		for {
			c, ok := rt.Reader.Peek()
			if !ok {
				return Accept{}, NextReject()
			}
			if op.Inner != nil && c == op.Inner.Class.firstRune() {
				rt.Reader.Next()
				rt.Reader.Next()
				continue
			}
			if op.Class.Has(c) {
				break
			}
			rt.Reader.Next()
		}
		end := rt.Reader.Tell()
		push(RangeCapture(start, end, "", 0))
		return NextAccept(), nil

	case OpMatch:
		start := rt.Reader.Tell()
		if !matchLiteral(rt.Reader, op.Literal) {
			return Accept{}, NextReject()
		}
		end := rt.Reader.Tell()
		push(RangeCapture(start, end, "", 0))
		return NextAccept(), nil

	case OpTouch:
		if !matchLiteral(rt.Reader, op.Literal) {
			return Accept{}, NextReject()
		}
		return NextAccept(), nil

	case OpCall:
		target := ctx.Runtime.Program.Parselets[op.ParseletIdx]
		return runCall(ctx, target, op.N, op.HasNargs)

	case OpTryCall:
		t := top()
		v := t.Materialize(rt.Reader)
		if v.Kind() != KindParselet {
			return NextAccept(), nil
		}
		pop()
		return runCall(ctx, v.Parselet(), op.N, op.HasNargs)

	case OpCreate:
		n := len(ctx.frameMarks)
		floor := ctx.CaptureStart
		if n > 0 {
			floor = ctx.frameMarks[n-1]
		}
		captured := append([]Capture(nil), rt.Stack[floor:]...)
		ctx.truncateTo(floor)
		child := reduceSeverity(captured, rt.Reader)
		d := NewDict()
		d.Set("emit", Str(op.Name))
		d.Set("children", child)
		return PushAccept(ValueCapture(FromDict(d), "", DefaultSeverity)), nil

	case OpLexeme:
		c := pop()
		text := c.Materialize(rt.Reader)
		d := NewDict()
		d.Set("emit", Str(op.Name))
		d.Set("value", text)
		return PushAccept(ValueCapture(FromDict(d), "", DefaultSeverity)), nil

	case OpExpect:
		accept, err := executeOps([]Op{*op.Inner}, ctx)
		if err == nil {
			return accept, nil
		}
		if rj := asReject(err); rj != nil && rj.Kind == RejectNext {
			return Accept{}, ErrorRejectf("expected %s", op.Inner.Kind)
		}
		return Accept{}, err

	case OpPrint:
		if rt.printEnabled {
			rt.Log.Debugf("captures: %s", formatCaptures(ctx.captures(), rt.Reader))
		}
		return NextAccept(), nil

	case OpAlt:
		return executeAlt(op, ctx)

	case OpLoop:
		return executeLoop(op, ctx)

	default:
		panic("tokane: unhandled op kind")
	}
}

// matchLiteral consumes literal from the reader if it matches exactly,
// leaving the reader untouched otherwise.
func matchLiteral(r *Reader, literal string) bool {
	start := r.Tell()
	for _, want := range literal {
		got, ok := r.Next()
		if !ok || got != want {
			r.Reset(start)
			return false
		}
	}
	return true
}

func (cc *CharClass) firstRune() rune {
	for i := 0; i < int(cc.size)<<3; i++ {
		if cc.Has(rune(i)) {
			return rune(i)
		}
	}
	return utf8.RuneError
}

// runCall invokes another parselet through the engine (spec §4.1
// "Calls"): on success its single result capture (if any) is pushed
// onto the caller's stack and execution continues; on failure the
// reject propagates, ending the calling sequence.
func runCall(ctx *Context, target *Parselet, argc int, hasNargs bool) (Accept, error) {
	rt := ctx.Runtime
	var nargs *Dict
	if hasNargs {
		v := rt.Stack[len(rt.Stack)-1].Materialize(rt.Reader)
		rt.Stack = rt.Stack[:len(rt.Stack)-1]
		nargs = v.Dict()
	}
	accept, err := target.Run(rt, argc, nargs, false, ctx.Depth+1)
	if err != nil {
		return Accept{}, err
	}
	switch accept.Kind {
	case AcceptPush:
		rt.Stack = append(rt.Stack, accept.Capture)
		return NextAccept(), nil
	default:
		return NextAccept(), nil
	}
}

// executeAlt implements the alternation policy documented in spec
// §4.3: try each alternative against a saved Reader offset and stack
// height; on Reject(Next) restore and try the next; on Reject(Main)
// or Reject(Error), propagate without trying further alternatives.
func executeAlt(op *Op, ctx *Context) (Accept, error) {
	rt := ctx.Runtime
	start := rt.Reader.Tell()
	height := len(rt.Stack)

	var lastErr error
	for _, alt := range op.Alts {
		accept, err := executeOps(alt, ctx)
		if err == nil {
			return accept, nil
		}
		rj := asReject(err)
		if rj == nil || rj.Kind == RejectMain || rj.Kind == RejectError {
			return Accept{}, err
		}
		lastErr = err
		rt.Reader.Reset(start)
		ctx.truncateTo(height)
	}
	if lastErr == nil {
		return Accept{}, NextReject()
	}
	return Accept{}, lastErr
}

// executeLoop repeats its body until the body rejects or requests an
// explicit Break, the explicit construct spec §9 asks Break/Continue
// be relocated to rather than living (unreachably) in parselet scope.
func executeLoop(op *Op, ctx *Context) (Accept, error) {
	for {
		accept, err := executeOps(op.Body, ctx)
		if err != nil {
			rj := asReject(err)
			if rj != nil && rj.Kind == RejectNext {
				return NextAccept(), nil
			}
			return Accept{}, err
		}
		switch accept.Kind {
		case AcceptBreak:
			return ReturnAccept(accept.Value, accept.HasValue), nil
		case AcceptContinue, AcceptNext:
			continue
		default:
			return accept, nil
		}
	}
}

func formatCaptures(caps []Capture, r *Reader) string {
	out := "$0"
	for i, c := range caps {
		if i == 0 {
			out = "$0=" + c.Materialize(r).String()
			continue
		}
		out += ", $" + itoa(i) + "=" + c.Materialize(r).String()
	}
	return out
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
