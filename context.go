package tokane

import "github.com/josharian/intern"

// Context is a single activation frame: the locals/argument window
// and the working capture range for one parselet call, plus whatever
// this call needs to restore the Reader and capture stack on exit
// (spec §4.4).
type Context struct {
	Runtime *Runtime

	Parselet *Parselet

	StackStart   int // first local slot, relative to Runtime.Stack
	CaptureStart int // index of this frame's $0, = StackStart + locals
	GlobalStart  int // first local slot of the outermost (main) frame

	ReaderStart  Offset
	SourceOffset *Offset

	Depth int

	// frameMarks records the capture-stack floor pushed by each
	// open Op(Frame), consumed by the matching Op(Close).
	frameMarks []int
}

func newContext(rt *Runtime, p *Parselet, locals, args int, globalStart, depth int) *Context {
	// The caller already pushed argc captures (spec §4.4's "[ args |
	// locals | $0 | ... ]" layout); stack_start sits at the start of
	// those, not above them, so the binding loop in Parselet.Run reads
	// them back out of slots 0..args.
	stackStart := len(rt.Stack) - args
	for i := args; i < locals; i++ {
		rt.Stack = append(rt.Stack, EmptyCapture())
	}
	ctx := &Context{
		Runtime:      rt,
		Parselet:     p,
		StackStart:   stackStart,
		CaptureStart: stackStart + locals,
		Depth:        depth,
	}
	if globalStart >= 0 {
		ctx.GlobalStart = globalStart
	}
	ctx.ReaderStart = rt.Reader.Tell()
	// $0 represents the entire parselet match; it starts Empty and
	// is overwritten as captures accumulate.
	rt.Stack = append(rt.Stack, EmptyCapture())
	return ctx
}

// LoadFast reads local slot k, relative to StackStart.
func (c *Context) LoadFast(k int) Value {
	return c.Runtime.Stack[c.StackStart+k].Materialize(c.Runtime.Reader)
}

// StoreFast writes local slot k, relative to StackStart.
func (c *Context) StoreFast(k int, v Value) {
	c.Runtime.Stack[c.StackStart+k] = ValueCapture(v, "", 0)
}

// LoadGlobal/StoreGlobal address slot k of the outermost (main)
// frame, reachable from any nested parselet.
func (c *Context) LoadGlobal(k int) Value {
	return c.Runtime.Stack[c.GlobalStart+k].Materialize(c.Runtime.Reader)
}

func (c *Context) StoreGlobal(k int, v Value) {
	c.Runtime.Stack[c.GlobalStart+k] = ValueCapture(v, "", 0)
}

// captures returns the slice of the stack belonging to this frame's
// captures: $0 followed by everything appended after it.
func (c *Context) captures() []Capture {
	return c.Runtime.Stack[c.CaptureStart:]
}

// pushCapture appends a capture to the current frame.
func (c *Context) pushCapture(cap Capture) {
	c.Runtime.Stack = append(c.Runtime.Stack, cap)
}

// LoadCaptureIndex / StoreCaptureIndex address a capture by its
// positional index within the current frame (0 is $0).
func (c *Context) LoadCaptureIndex(idx int) (Value, bool) {
	i := c.CaptureStart + idx
	if i >= len(c.Runtime.Stack) {
		return Void, false
	}
	cap := c.Runtime.Stack[i]
	if cap.Kind == CaptureEmpty {
		return Void, false
	}
	return cap.Materialize(c.Runtime.Reader), true
}

func (c *Context) StoreCaptureIndex(idx int, v Value) {
	i := c.CaptureStart + idx
	for len(c.Runtime.Stack) <= i {
		c.Runtime.Stack = append(c.Runtime.Stack, EmptyCapture())
	}
	c.Runtime.Stack[i] = ValueCapture(v, "", 0)
}

// LoadCaptureName / StoreCaptureName address a capture by alias,
// searching the current frame's captures from the most recent.
func (c *Context) LoadCaptureName(name string) (Value, bool) {
	name = intern.String(name)
	caps := c.captures()
	for i := len(caps) - 1; i >= 0; i-- {
		if caps[i].Alias == name {
			return caps[i].Materialize(c.Runtime.Reader), true
		}
	}
	return Void, false
}

func (c *Context) StoreCaptureName(name string, v Value) {
	name = intern.String(name)
	caps := c.captures()
	for i := len(caps) - 1; i >= 0; i-- {
		if caps[i].Alias == name {
			caps[i] = ValueCapture(v, name, caps[i].Severity)
			return
		}
	}
	c.pushCapture(ValueCapture(v, name, DefaultSeverity))
}

// truncateTo shrinks the shared stack back to n entries, the
// mechanism both Op(Close) and parselet exit use to discard a frame's
// working captures.
func (c *Context) truncateTo(n int) {
	c.Runtime.Stack = c.Runtime.Stack[:n]
}

// finish truncates the stack back to StackStart (spec §4.4: "on
// parselet exit the engine truncates the stack back to stack_start"),
// discarding this call's argument slots, locals and any leftover
// captures. The result capture (if any) already lives in accept's
// return value, not on the stack -- it's the caller's job (runCall,
// or the top-level Runtime.Run) to do something with it.
func (c *Context) finish(accept Accept) Accept {
	c.truncateTo(c.StackStart)
	return accept
}
