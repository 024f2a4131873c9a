package tokane

import (
	"github.com/sirupsen/logrus"
)

// memoKey identifies a (position, parselet) pair in the packrat memo
// table. The parselet is keyed by pointer identity, not name, per
// SPEC_FULL.md's resolution of "parselet identity" -- two differently
// named parselets never collide and an anonymous parselet still
// memoizes correctly.
type memoKey struct {
	offset   int
	parselet *Parselet
}

type memoEntry struct {
	end    Offset
	accept Accept
	err    error
}

// Runtime owns everything a single top-level parse shares: the
// program being executed, the input reader, the flat capture stack
// every Context indexes into, and the packrat memo table. One Runtime
// serves exactly one parse; nothing here is safe for concurrent use
// (spec §5).
type Runtime struct {
	Program *Program
	Reader  *Reader
	Stack   []Capture
	Memo    map[memoKey]memoEntry

	Log      *logrus.Logger
	MaxDepth int

	// printEnabled gates Op(Print); see SPEC_FULL.md supplemental
	// feature 4.
	printEnabled bool
}

func NewRuntime(program *Program, reader *Reader) *Runtime {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return &Runtime{
		Program:      program,
		Reader:       reader,
		Memo:         make(map[memoKey]memoEntry),
		Log:          log,
		MaxDepth:     4096,
		printEnabled: true,
	}
}

// ClearMemo discards every memoized result. Called by the main loop
// after each iteration commits, since committing invalidates every
// Offset the memo table might reference (spec invariant 4 and §9
// "Offset stability").
func (rt *Runtime) ClearMemo() {
	for k := range rt.Memo {
		delete(rt.Memo, k)
	}
}

// Run selects the program's designated entry parselet and drives it
// in main-loop mode against reader, the top-level entry point spec §2
// describes.
func Run(program *Program, reader *Reader) (Value, error) {
	rt := NewRuntime(program, reader)
	return rt.Run()
}

// ErrNoMatch reports that the input did not match at the top level
// (spec §7, kind 1 "soft parse failure" surfaced as "no match" rather
// than a user-visible error). Runtime.Run returns it when the main
// parselet's call ends in a reject other than an error; input on which
// the main loop matched nothing yields (Void, nil) instead, which the
// CLI's run subcommand reports as ErrNoMatch.
var ErrNoMatch = NewParseError("input did not match")

func (rt *Runtime) Run() (Value, error) {
	main := rt.Program.Parselets[rt.Program.Main]
	accept, err := main.Run(rt, 0, nil, true, 0)
	if err != nil {
		if rj := asReject(err); rj != nil && rj.Kind != RejectError {
			return Void, ErrNoMatch
		}
		return Void, err
	}
	switch accept.Kind {
	case AcceptPush:
		return accept.Capture.Materialize(rt.Reader), nil
	case AcceptReturn, AcceptRepeat:
		if accept.HasValue {
			return accept.Value, nil
		}
		return Void, nil
	default:
		return Void, nil
	}
}
