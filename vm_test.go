package tokane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(input string) (*Context, *Runtime) {
	rt := NewRuntime(&Program{}, NewReaderString(input))
	p := &Parselet{Locals: 0}
	ctx := newContext(rt, p, 0, 0, 0, 0)
	return ctx, rt
}

func TestExecuteOpsMatchPushesRangeCapture(t *testing.T) {
	ctx, rt := newTestContext("abc")

	accept, err := executeOps([]Op{Match("ab"), Collect(DefaultSeverity)}, ctx)
	require.NoError(t, err)
	assert.Equal(t, AcceptPush, accept.Kind)
	assert.Equal(t, "ab", accept.Capture.Materialize(rt.Reader).Text())
}

func TestExecuteOpsTouchProducesNoCapture(t *testing.T) {
	ctx, rt := newTestContext("abc")

	accept, err := executeOps([]Op{Touch("ab"), Collect(DefaultSeverity)}, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	assert.Equal(t, Void, accept.Capture.Materialize(rt.Reader))
}

func TestExecuteOpsMatchMismatchRewinds(t *testing.T) {
	ctx, rt := newTestContext("abc")

	_, err := executeOps([]Op{Match("xy")}, ctx)
	require.Error(t, err)
	assert.Equal(t, 0, rt.Reader.Tell().Byte)
}

func TestExecuteOpsAltPicksFirstSuccess(t *testing.T) {
	ctx, rt := newTestContext("b")

	accept, err := executeOps([]Op{
		Alt(
			[]Op{Match("a"), Collect(DefaultSeverity)},
			[]Op{Match("b"), Collect(DefaultSeverity)},
		),
	}, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	assert.Equal(t, "b", accept.Capture.Materialize(rt.Reader).Text())
}

func TestExecuteOpsAltRestoresStackBetweenAlternatives(t *testing.T) {
	ctx, rt := newTestContext("b")

	accept, err := executeOps([]Op{
		Alt(
			[]Op{Match("a"), Match("a")}, // first Match fails outright, never pushes
			[]Op{Match("b"), Collect(DefaultSeverity)},
		),
	}, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	// The winning alternative's own Collect drains the frame's captures
	// back down to CaptureStart, so nothing from either attempt is left
	// sitting on the shared stack.
	assert.Equal(t, ctx.CaptureStart, len(rt.Stack))
}

func TestExecuteOpsFrameAndCloseKeepsOnlyTopCapture(t *testing.T) {
	ctx, rt := newTestContext("xy")

	ops := []Op{
		Frame(0),
		Match("x"),
		Match("y"),
		Close(),
		Collect(DefaultSeverity),
	}
	accept, err := executeOps(ops, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	assert.Equal(t, "y", accept.Capture.Materialize(rt.Reader).Text())
}

func TestExecuteOpsCollectReducesToList(t *testing.T) {
	ctx, rt := newTestContext("")

	ops := []Op{
		Push(Int(1)),
		Push(Int(2)),
		Collect(DefaultSeverity),
	}
	accept, err := executeOps(ops, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	v := accept.Capture.Materialize(rt.Reader)
	require.Equal(t, KindList, v.Kind())
	assert.Equal(t, int64(1), v.List().Get(0).Int())
	assert.Equal(t, int64(2), v.List().Get(1).Int())
}

func TestExecuteOpsLoadStoreCaptureByIndex(t *testing.T) {
	ctx, rt := newTestContext("")

	ops := []Op{
		PushAddr(1),
		Push(Int(42)),
		StoreCapture(),
		PushAddr(1),
		LoadCapture(),
	}
	_, err := executeOps(ops, ctx)
	require.NoError(t, err)
	// LoadCapture leaves its result on top of the shared stack rather
	// than terminating the sequence (it's an AcceptNext op, same as
	// every other stack/variable instruction).
	got := rt.Stack[len(rt.Stack)-1].Materialize(rt.Reader)
	assert.Equal(t, int64(42), got.Int())
}

func TestExecuteOpsLoadStoreCaptureByName(t *testing.T) {
	ctx, rt := newTestContext("")

	ops := []Op{
		Push(Int(5)),
		StoreCaptureName("x"),
		LoadCaptureName("x"),
	}
	_, err := executeOps(ops, ctx)
	require.NoError(t, err)
	got := rt.Stack[len(rt.Stack)-1].Materialize(rt.Reader)
	assert.Equal(t, int64(5), got.Int())
}

func TestExecuteOpsLoopAccumulatesUntilRejectNext(t *testing.T) {
	ctx, rt := newTestContext("aaab")

	body := []Op{Match("a")}
	accept, err := executeOps([]Op{Loop(body)}, ctx)
	require.NoError(t, err)
	assert.Equal(t, AcceptNext, accept.Kind)
	assert.Equal(t, 3, rt.Reader.Tell().Byte)
}

func TestExecuteOpsExpectConvertsSoftRejectToError(t *testing.T) {
	ctx, _ := newTestContext("z")

	_, err := executeOps([]Op{Expect(Match("a"))}, ctx)
	require.Error(t, err)
	rj := asReject(err)
	require.NotNil(t, rj)
	assert.Equal(t, RejectError, rj.Kind)
}

func TestExecuteOpsUntilCharScansToDelimiter(t *testing.T) {
	ctx, rt := newTestContext(`abc"rest`)

	quote := NewCharClassFromRanges([2]rune{'"', '"'})
	accept, err := executeOps([]Op{UntilChar(quote, nil), Collect(DefaultSeverity)}, ctx)
	require.NoError(t, err)
	require.Equal(t, AcceptPush, accept.Kind)
	assert.Equal(t, "abc", accept.Capture.Materialize(rt.Reader).Text())
}

// TestExecuteOpsCallWithLocalsLeavesNoResidueOnCallerStack exercises a
// callee whose Locals exceed its argument count: the demo grammar's
// own parselets never do this (every one has Locals == 0), so without
// Parselet.Run truncating back to its own stack_start on exit, the
// callee's extra local slot would leak onto the caller's stack above
// the one result value runCall appends.
func TestExecuteOpsCallWithLocalsLeavesNoResidueOnCallerStack(t *testing.T) {
	prog := &Program{}
	target := NewParselet(nil, []Arg{{Name: "n", Default: -1}}, 2, nil, nil, []Op{
		LoadFast(0),
		Collect(DefaultSeverity),
	})
	// Finalize refuses a main parselet with parameters, so an empty
	// parselet stands in as main; the Call below still targets index 0.
	prog.Parselets = append(prog.Parselets, target, NewParselet(nil, nil, 0, nil, nil, nil))
	prog.Main = 1
	require.NoError(t, prog.Finalize())

	rt := NewRuntime(prog, NewReaderString(""))
	caller := &Parselet{Locals: 0}
	ctx := newContext(rt, caller, 0, 0, 0, 0)

	ops := []Op{
		Push(Int(9)), // the one positional argument the call supplies
		Call(0, 1, false),
	}
	accept, err := executeOps(ops, ctx)
	require.NoError(t, err)
	assert.Equal(t, AcceptNext, accept.Kind)

	// Only the caller's own $0 plus the call's single result capture
	// should remain: the callee's argument slot and its extra local
	// must not have survived the call.
	require.Equal(t, 2, len(rt.Stack))
	assert.Equal(t, int64(9), rt.Stack[len(rt.Stack)-1].Materialize(rt.Reader).Int())
}

func TestExecuteOpsCallInvokesTargetParselet(t *testing.T) {
	prog := &Program{}
	target := NewParselet(nil, nil, 0, nil, nil, []Op{Match("ok"), Collect(DefaultSeverity)})
	prog.Parselets = append(prog.Parselets, target)
	require.NoError(t, prog.Finalize())

	rt := NewRuntime(prog, NewReaderString("ok"))
	caller := &Parselet{Locals: 0}
	ctx := newContext(rt, caller, 0, 0, 0, 0)

	accept, err := executeOps([]Op{Call(0, 0, false)}, ctx)
	require.NoError(t, err)
	// Call leaves the callee's pushed capture on the caller's stack and
	// reports AcceptNext so the caller's own sequence keeps running.
	assert.Equal(t, AcceptNext, accept.Kind)
	assert.Equal(t, "ok", rt.Stack[len(rt.Stack)-1].Materialize(rt.Reader).Text())
}
