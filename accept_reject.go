package tokane

import "fmt"

// AcceptKind enumerates the outcomes an Op or a parselet call can
// accept with (spec §4.3).
type AcceptKind int

const (
	// AcceptNext continues to the next sibling op; no capture
	// produced.
	AcceptNext AcceptKind = iota
	// AcceptHold behaves like AcceptNext but suppresses any
	// surrounding loop's "advance", used by zero-width assertions
	// such as peek.
	AcceptHold
	// AcceptPush emits a capture into the current frame.
	AcceptPush
	// AcceptRepeat is produced only by the main loop driver: this
	// iteration is one of many concatenated matches.
	AcceptRepeat
	// AcceptReturn finishes the current parselet call with an
	// optional value.
	AcceptReturn
	// AcceptBreak and AcceptContinue serve loop constructs; they
	// are a programmer error if they reach a parselet's own top
	// level undigested.
	AcceptBreak
	AcceptContinue
)

// Accept is the positive outcome of running an Op or a parselet.
type Accept struct {
	Kind     AcceptKind
	Capture  Capture
	Value    Value
	HasValue bool
}

func NextAccept() Accept { return Accept{Kind: AcceptNext} }
func HoldAccept() Accept { return Accept{Kind: AcceptHold} }

func PushAccept(c Capture) Accept {
	return Accept{Kind: AcceptPush, Capture: c}
}

func RepeatAccept(v Value, has bool) Accept {
	return Accept{Kind: AcceptRepeat, Value: v, HasValue: has}
}

func ReturnAccept(v Value, has bool) Accept {
	return Accept{Kind: AcceptReturn, Value: v, HasValue: has}
}

func BreakAccept(v Value, has bool) Accept {
	return Accept{Kind: AcceptBreak, Value: v, HasValue: has}
}

func ContinueAccept() Accept { return Accept{Kind: AcceptContinue} }

// RejectKind enumerates the failure outcomes of running an Op or a
// parselet (spec §4.3, §7).
type RejectKind int

const (
	// RejectNext is a soft reject: try the next alternative.
	RejectNext RejectKind = iota
	// RejectSkip is coerced upward to AcceptNext by the engine;
	// used to swallow whitespace/comment failures silently.
	RejectSkip
	// RejectMain propagates out to the outermost parselet call,
	// aborting nested alternatives.
	RejectMain
	// RejectError is a hard error; never recovered within the same
	// parselet chain.
	RejectError
)

// Reject is the negative outcome of running an Op or a parselet. It
// implements the error interface so it can be threaded through
// ordinary Go error returns.
type Reject struct {
	Kind RejectKind
	Err  *ParseError
}

func (r *Reject) Error() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	switch r.Kind {
	case RejectSkip:
		return "skip"
	case RejectMain:
		return "main reject"
	default:
		return "no match"
	}
}

func NextReject() *Reject  { return &Reject{Kind: RejectNext} }
func SkipReject() *Reject  { return &Reject{Kind: RejectSkip} }
func MainReject() *Reject  { return &Reject{Kind: RejectMain} }

func ErrorReject(err *ParseError) *Reject {
	return &Reject{Kind: RejectError, Err: err}
}

func ErrorRejectf(format string, args ...any) *Reject {
	return ErrorReject(NewParseError(fmt.Sprintf(format, args...)))
}

// asReject recovers the *Reject carried by a generic Go error, or nil
// if err isn't one (e.g. an I/O error surfacing from the Reader).
func asReject(err error) *Reject {
	if err == nil {
		return nil
	}
	if rj, ok := err.(*Reject); ok {
		return rj
	}
	return nil
}
