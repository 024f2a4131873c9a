package tokane

import "github.com/josharian/intern"

// CaptureKind identifies which variant of a Capture is populated.
type CaptureKind int

const (
	// CaptureEmpty is the default fill for fresh local slots and
	// unproduced siblings.
	CaptureEmpty CaptureKind = iota
	// CaptureRange is a span of reader input, materialized to a
	// string lazily via Reader.Extract.
	CaptureRange
	// CaptureValue is a concrete Value produced by semantic code.
	CaptureValue
)

// DefaultSeverity is the priority new captures receive unless a
// compiled Op overrides it. The spec leaves the exact value (5 in the
// original) as an arbitrary but consistent choice; this runtime keeps
// 5 and uses it consistently across Collect and Create.
const DefaultSeverity uint8 = 5

// Capture is a single entry on the runtime capture stack.
type Capture struct {
	Kind     CaptureKind
	Start    Offset
	End      Offset
	Value    Value
	Alias    string
	Severity uint8
}

func EmptyCapture() Capture {
	return Capture{Kind: CaptureEmpty}
}

func RangeCapture(start, end Offset, alias string, severity uint8) Capture {
	if alias != "" {
		alias = intern.String(alias)
	}
	return Capture{Kind: CaptureRange, Start: start, End: end, Alias: alias, Severity: severity}
}

func ValueCapture(v Value, alias string, severity uint8) Capture {
	if alias != "" {
		alias = intern.String(alias)
	}
	return Capture{Kind: CaptureValue, Value: v, Alias: alias, Severity: severity}
}

// Materialize turns a Capture into a concrete Value, extracting Range
// captures from the reader. Empty captures materialize to Void.
func (c Capture) Materialize(r *Reader) Value {
	switch c.Kind {
	case CaptureRange:
		return Str(r.Extract(c.Start, c.End))
	case CaptureValue:
		return c.Value
	default:
		return Void
	}
}

// reduceSeverity implements the severity-based capture reduction used
// by Collect and Create (spec §4.5):
//
//  1. let S = max(severity) over non-empty captures
//  2. keep only captures whose severity equals S
//  3. if any kept capture has an alias, emit a Dict; if exactly one
//     kept capture remains, emit it directly; otherwise emit a List
//     in left-to-right order.
func reduceSeverity(captures []Capture, r *Reader) Value {
	kept := make([]Capture, 0, len(captures))
	var max uint8
	any := false
	for _, c := range captures {
		if c.Kind == CaptureEmpty {
			continue
		}
		if !any || c.Severity > max {
			max = c.Severity
			any = true
		}
	}
	if !any {
		return Void
	}
	for _, c := range captures {
		if c.Kind != CaptureEmpty && c.Severity == max {
			kept = append(kept, c)
		}
	}

	hasAlias := false
	for _, c := range kept {
		if c.Alias != "" {
			hasAlias = true
			break
		}
	}

	if hasAlias {
		d := NewDict()
		for _, c := range kept {
			key := c.Alias
			if key == "" {
				continue
			}
			d.Set(key, c.Materialize(r))
		}
		return FromDict(d)
	}

	if len(kept) == 1 {
		return kept[0].Materialize(r)
	}

	items := make([]Value, len(kept))
	for i, c := range kept {
		items[i] = c.Materialize(r)
	}
	return FromList(NewList(items...))
}
