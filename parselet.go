package tokane

// Consuming records whether a parselet consumes input at all, and
// whether that consumption can recurse into itself without consuming
// anything first (left recursion). Program.Finalize computes this for
// every parselet by a fixpoint over the call graph (spec §4.6). After
// Finalize, a nil Consuming marks a parselet that never consumes input
// (a plain function); Parselet.Run skips the memo and left-recursion
// path for it, as it does for every main-mode call.
type Consuming struct {
	LeftRec  bool
	Nullable bool
}

// Arg is one entry of a parselet's argument signature: its name, and
// the static-table index of its default value, or -1 if the argument
// is required.
type Arg struct {
	Name    string
	Default int
}

// Parselet is the unit a Tokane program is built from: a named (or
// anonymous) bytecode routine that is simultaneously a grammar
// production and an ordinary function, per spec §3 -- the destinction
// is just whether Consuming ends up nil-or-not after Program.Finalize.
type Parselet struct {
	Name      *string
	Signature []Arg
	Locals    int
	Begin     []Op
	End       []Op
	Body      []Op
	Silent    bool

	Consuming *Consuming
}

func NewParselet(name *string, signature []Arg, locals int, begin, end, body []Op) *Parselet {
	if len(signature) > locals {
		panic("tokane: signature may not be longer than locals")
	}
	return &Parselet{
		Name:      name,
		Signature: signature,
		Locals:    locals,
		Begin:     begin,
		End:       end,
		Body:      body,
	}
}

// IsCallable reports whether the parselet can be invoked with (or
// without) arguments. Op(TryCall) does not consult it: it calls any
// Parselet value it finds on top of the stack.
func (p *Parselet) IsCallable(withArguments bool) bool {
	if !withArguments {
		if len(p.Signature) == 0 {
			return true
		}
		for _, a := range p.Signature {
			if a.Default < 0 {
				return false
			}
		}
		return true
	}
	return len(p.Signature) > 0
}

type parseletPhase int

const (
	phaseBody parseletPhase = iota
	phaseBegin
	phaseEnd
)

// _run drives exactly one call's worth of begin/body/end execution.
// For an ordinary (non-main) call this almost always means: run begin
// once if present, otherwise run body once, and return whatever it
// accepts or rejects with. For the main parselet, the same state
// machine additionally loops the body phase for as long as it keeps
// consuming input, accumulating one result per iteration, and only
// moves on to the end phase once the reader is exhausted -- this is
// the "document" loop spec §2 describes, and it lives here rather
// than in Runtime.Run so that nested calls and the top-level call
// share one implementation.
func (p *Parselet) _run(ctx *Context, main bool) (Accept, error) {
	rt := ctx.Runtime

	first := len(p.Begin) > 0
	var results []Value

	state := phaseBody
	if len(p.Begin) > 0 {
		state = phaseBegin
	}

	var finalAccept Accept
	var finalErr error
	done := false
	useResults := false

loop:
	for {
		readerStart := rt.Reader.Tell()

		var ops []Op
		switch state {
		case phaseBegin:
			ops = p.Begin
		case phaseEnd:
			ops = p.End
		default:
			ops = p.Body
		}

		accept, err := executeOps(ops, ctx)

		if main && err == nil {
			switch accept.Kind {
			case AcceptNext:
				accept = RepeatAccept(Void, false)
			case AcceptReturn:
				accept = RepeatAccept(accept.Value, accept.HasValue)
			case AcceptPush:
				v := accept.Capture.Materialize(rt.Reader)
				has := accept.Capture.Kind != CaptureEmpty
				accept = RepeatAccept(v, has)
			}
		}

		continuing := false

		if err == nil {
			switch accept.Kind {
			case AcceptHold:
				finalAccept, done = NextAccept(), true

			case AcceptReturn:
				if accept.HasValue {
					if !p.Silent {
						finalAccept = PushAccept(ValueCapture(accept.Value, "", DefaultSeverity))
					} else {
						finalAccept = PushAccept(EmptyCapture())
					}
				} else {
					finalAccept = PushAccept(EmptyCapture())
				}
				done = true

			case AcceptRepeat:
				if accept.HasValue {
					results = append(results, accept.Value)
				}
				continuing = true

			case AcceptPush:
				if p.Silent {
					finalAccept, done = PushAccept(EmptyCapture()), true
				} else if len(results) > 0 {
					done, useResults = true, true
				} else {
					finalAccept, done = accept, true
				}

			case AcceptBreak, AcceptContinue:
				panic("tokane: break/continue not valid at parselet top level")

			default: // AcceptNext, falling through like Rust's catch-all arm
				if len(results) > 0 {
					done, useResults = true, true
				} else {
					finalAccept, done = accept, true
				}
			}

			if !done && continuing && main {
				// No input consumed this main-loop iteration: force
				// progress by skipping one character.
				if state == phaseBody && rt.Reader.Tell().Byte == readerStart.Byte {
					rt.Reader.Next()
				}
				rt.Reader.Commit()
				rt.ClearMemo()
			}
		} else {
			rj := asReject(err)
			if rj == nil {
				return Accept{}, err
			}
			switch rj.Kind {
			case RejectSkip:
				finalAccept, done = NextAccept(), true
			case RejectError:
				if ctx.SourceOffset != nil {
					rj.Err.PatchOffset(*ctx.SourceOffset)
				}
				finalErr, done = rj, true
			case RejectMain:
				if !main {
					finalErr, done = rj, true
				}
			}

			if !done {
				if main && state == phaseBody {
					rt.Reader.Next()
					ctx.ReaderStart = rt.Reader.Tell()
				} else if len(results) > 0 && state == phaseBody {
					state = phaseEnd
					continue loop
				} else if state == phaseBody {
					finalErr, done = rj, true
				}
			}
		}

		if done {
			break loop
		}

		if state == phaseEnd {
			useResults = true
			break loop
		} else if !first && rt.Reader.Eof() {
			state = phaseEnd
		} else {
			state = phaseBody
		}

		ctx.truncateTo(ctx.CaptureStart + 1)
		first = false
	}

	if useResults {
		switch {
		case len(results) > 1:
			return PushAccept(ValueCapture(FromList(NewList(results...)), "", DefaultSeverity)), nil
		case len(results) == 1:
			return PushAccept(ValueCapture(results[0], "", DefaultSeverity)), nil
		default:
			return NextAccept(), nil
		}
	}

	return finalAccept, finalErr
}

// Run invokes the parselet through the engine: checking the packrat
// memo, binding arguments, and -- for left-recursive parselets --
// growing the match with the seed/grow loop spec §4.5 describes,
// before finally delegating one call's worth of actual execution to
// _run.
func (p *Parselet) Run(rt *Runtime, args int, nargs *Dict, main bool, depth int) (Accept, error) {
	if depth > rt.MaxDepth {
		return Accept{}, ErrorRejectf("recursion depth exceeded")
	}

	if !main && p.Consuming != nil {
		readerStart := rt.Reader.Tell()
		key := memoKey{offset: readerStart.Byte, parselet: p}
		if entry, ok := rt.Memo[key]; ok {
			rt.Reader.Reset(entry.end)
			return entry.accept, entry.err
		}
	}

	globalStart := 0
	if main {
		globalStart = len(rt.Stack)
	}
	ctx := newContext(rt, p, p.Locals, args, globalStart, depth)

	if !main {
		if args > len(p.Signature) {
			return Accept{}, ErrorRejectf(
				"too many parameters, %d possible, %d provided", len(p.Signature), args)
		}

		for i := args; i < len(p.Signature); i++ {
			arg := p.Signature[i]
			slot := ctx.StackStart + i
			if rt.Stack[slot].Kind != CaptureEmpty {
				continue
			}
			if nargs != nil {
				if v, ok := nargs.Remove(arg.Name); ok {
					rt.Stack[slot] = ValueCapture(v, "", 0)
					continue
				}
			}
			if arg.Default >= 0 {
				rt.Stack[slot] = ValueCapture(rt.Program.Statics[arg.Default], "", 0)
				continue
			}
			return Accept{}, ErrorRejectf("parameter '%s' required", arg.Name)
		}

		if nargs != nil && nargs.Len() > 0 {
			return Accept{}, ErrorRejectf("parameter '%s' provided to call but not used", nargs.Keys()[0])
		}
	} else if len(p.Signature) != 0 {
		panic("tokane: main parselet may not declare a signature")
	}

	for i := 0; i < p.Locals; i++ {
		if rt.Stack[ctx.StackStart+i].Kind == CaptureEmpty {
			rt.Stack[ctx.StackStart+i] = ValueCapture(Void, "", 0)
		}
	}

	if !main && p.Consuming != nil && p.Consuming.LeftRec {
		readerStart := ctx.ReaderStart
		key := memoKey{offset: readerStart.Byte, parselet: p}

		readerEnd := readerStart
		var result memoEntry
		result.end = readerEnd
		result.accept = Accept{}
		result.err = NextReject()
		rt.Memo[key] = result

		for {
			accept, err := p._run(ctx, main)

			if rj := asReject(err); rj != nil && (rj.Kind == RejectMain || rj.Kind == RejectError) {
				result = memoEntry{end: readerEnd, accept: accept, err: err}
				break
			}
			if err != nil {
				break
			}

			loopEnd := rt.Reader.Tell()
			if loopEnd.Byte <= readerEnd.Byte {
				break
			}

			result = memoEntry{end: loopEnd, accept: accept, err: nil}
			readerEnd = loopEnd
			rt.Memo[key] = result

			rt.Reader.Reset(readerStart)
			ctx.truncateTo(ctx.StackStart)
			for len(rt.Stack) <= ctx.CaptureStart {
				rt.Stack = append(rt.Stack, EmptyCapture())
			}
		}

		rt.Reader.Reset(result.end)
		if result.err != nil {
			return result.accept, result.err
		}
		return ctx.finish(result.accept), nil
	}

	accept, err := p._run(ctx, main)

	if !main && p.Consuming != nil {
		key := memoKey{offset: ctx.ReaderStart.Byte, parselet: p}
		rt.Memo[key] = memoEntry{end: rt.Reader.Tell(), accept: accept, err: err}
	}

	if err != nil {
		return accept, err
	}
	return ctx.finish(accept), nil
}
