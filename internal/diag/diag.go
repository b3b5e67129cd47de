// Package diag defines the decoder's error kinds and the diagnostics list
// that decoders accumulate for recoverable problems.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies a decode problem.
type Kind int

const (
	OutOfBounds Kind = iota + 1
	FormatMismatch
	IndexOutOfRange
	AmbiguousAssignment
)

func (k Kind) String() string {
	switch k {
	case OutOfBounds:
		return "out of bounds"
	case FormatMismatch:
		return "format mismatch"
	case IndexOutOfRange:
		return "index out of range"
	case AmbiguousAssignment:
		return "ambiguous assignment"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is.
var (
	ErrOutOfBounds         = errors.New("out of bounds")
	ErrFormatMismatch      = errors.New("format mismatch")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrAmbiguousAssignment = errors.New("ambiguous assignment")
)

func (k Kind) sentinel() error {
	switch k {
	case OutOfBounds:
		return ErrOutOfBounds
	case FormatMismatch:
		return ErrFormatMismatch
	case IndexOutOfRange:
		return ErrIndexOutOfRange
	case AmbiguousAssignment:
		return ErrAmbiguousAssignment
	}
	return nil
}

// Error is a decode error located at a byte offset of the source buffer.
type Error struct {
	Kind   Kind
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[0x%06X] %s: %s", e.Offset, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind.sentinel() }

// Errorf builds an *Error.
func Errorf(kind Kind, offset int, format string, args ...any) error {
	return &Error{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err, or 0 if err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range []Kind{OutOfBounds, FormatMismatch, IndexOutOfRange, AmbiguousAssignment} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return 0
}

// Diagnostic is a recoverable problem found while decoding.
type Diagnostic struct {
	Offset int
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("0x%06X: %v", d.Offset, d.Err)
}

// List accumulates diagnostics in the order they were found.
type List []Diagnostic

// Add records err at offset. A nil err is ignored.
func (l *List) Add(offset int, err error) {
	if err == nil {
		return
	}
	*l = append(*l, Diagnostic{Offset: offset, Err: err})
}

// Addf records a new *Error of the given kind.
func (l *List) Addf(kind Kind, offset int, format string, args ...any) {
	l.Add(offset, Errorf(kind, offset, format, args...))
}

// Count returns how many diagnostics are of the given kind.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if KindOf(d.Err) == kind {
			n++
		}
	}
	return n
}
