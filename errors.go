package tokane

import "fmt"

// ParseError is a hard error produced by Op(Expect) or a semantic
// callback (spec §7, kind 3 "user error"). Parselet._run patches in
// the enclosing Context's SourceOffset when the producer didn't set an
// offset and that field is set; nothing in this runtime sets
// Context.SourceOffset, so such errors carry no offset.
type ParseError struct {
	Message string
	Offset  *Offset
}

func NewParseError(message string) *ParseError {
	return &ParseError{Message: message}
}

func (e *ParseError) Error() string {
	if e.Offset != nil {
		return fmt.Sprintf("%s @ %s", e.Message, e.Offset)
	}
	return e.Message
}

// PatchOffset fills in the error's source offset if one hasn't been
// recorded already; Parselet._run calls it when a RejectError leaves
// the parselet.
func (e *ParseError) PatchOffset(o Offset) {
	if e.Offset == nil {
		e.Offset = &o
	}
}
