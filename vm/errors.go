package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a VM failure. The set is closed and mirrors the error
// surface named in the interface boundary: some kinds are raised by the
// interpreter, some by the compiler, some by either.
type Kind int

const (
	StackUnderflow Kind = iota
	StackOverflow
	ReturnStackUnderflow
	ReturnStackOverflow
	SegmentViolation
	NullDeref
	OutOfRange
	NotTagged
	BadTag
	UnknownWord
	UnclosedDefinition
	UnexpectedSemicolon
	UnexpectedClose
	NestedDefinition
	UnterminatedString
	StringTooLong
	BadEval
	HeapExhausted
	SyntaxError
)

var kindNames = [...]string{
	"StackUnderflow",
	"StackOverflow",
	"ReturnStackUnderflow",
	"ReturnStackOverflow",
	"SegmentViolation",
	"NullDeref",
	"OutOfRange",
	"NotTagged",
	"BadTag",
	"UnknownWord",
	"UnclosedDefinition",
	"UnexpectedSemicolon",
	"UnexpectedClose",
	"NestedDefinition",
	"UnterminatedString",
	"StringTooLong",
	"BadEval",
	"HeapExhausted",
	"SyntaxError",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Fault is a surfaced VM error: a Kind plus a snapshot of the data stack at
// the moment of failure. Local-recoverable conditions (heap exhaustion,
// vector out-of-range) do not produce a Fault; they return a null block
// address (Heap.Alloc, Vectors.Create) or NilCell (Vectors.Get/Update) to
// the caller instead, per the error model's local-recoverable/surfaced split.
type Fault struct {
	Kind    Kind
	Message string
	Stack   []Cell
	cause   error
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Cause implements the github.com/pkg/errors Causer interface so that
// errors.Cause(err) can unwrap a Fault down to its underlying error, if any.
func (f *Fault) Cause() error { return f.cause }

// Unwrap supports the standard library's errors.Is/As in addition to
// pkg/errors.Cause.
func (f *Fault) Unwrap() error { return f.cause }

func fault(kind Kind, stack []Cell, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Stack: append([]Cell(nil), stack...)}
}

func wrapFault(kind Kind, stack []Cell, cause error, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Stack: append([]Cell(nil), stack...), cause: errors.WithStack(cause)}
}
