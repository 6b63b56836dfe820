// Package qerr classifies the failures a simulation run can end with.
//
// Every error returned by the qir, statevec and sim packages is, or wraps,
// an *Error whose Kind tells the caller which stage rejected the run.
package qerr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors that carry no Kind.
	KindUnknown Kind = iota
	// KindParse covers malformed or unsupported source text.
	KindParse
	// KindCapacity means the qubit count is outside the simulation limit.
	KindCapacity
	// KindInvalidOperand means a qubit or result index is out of range.
	KindInvalidOperand
	// KindNumerical means an amplitude became NaN or infinite.
	KindNumerical
	// KindNormalization means the final distribution does not sum to 1.
	KindNormalization
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindCapacity:
		return "capacity error"
	case KindInvalidOperand:
		return "invalid operand"
	case KindNumerical:
		return "numerical error"
	case KindNormalization:
		return "normalization error"
	default:
		return "unknown error"
	}
}

// Error is a classified failure. Line is the 1-based source line the
// failure is attributed to, or 0 when it has none.
type Error struct {
	Kind Kind
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	if e.Line > 0 {
		s = fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Msg)
	} else {
		s = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, &Error{Kind: k}) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Line == 0
}

// AtLine returns a copy of e attributed to the given source line. An error
// that already has a line keeps it.
func (e *Error) AtLine(line int) *Error {
	if e.Line > 0 {
		return e
	}
	c := *e
	c.Line = line
	return &c
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Parsef returns a parse error at 1-based source line line; 0 means the
// error is not tied to a line.
func Parsef(line int, format string, args ...any) *Error {
	e := newf(KindParse, format, args...)
	e.Line = line
	return e
}

// Capacityf returns an error for a register that is too small or too large.
func Capacityf(format string, args ...any) *Error {
	return newf(KindCapacity, format, args...)
}

// Operandf returns an error for a qubit index or parameter an operation
// cannot accept.
func Operandf(format string, args ...any) *Error {
	return newf(KindInvalidOperand, format, args...)
}

// Numericalf returns an error for non-finite or degenerate amplitudes.
func Numericalf(format string, args ...any) *Error {
	return newf(KindNumerical, format, args...)
}

// Normalizationf returns an error for a final state whose probabilities do
// not sum to 1.
func Normalizationf(format string, args ...any) *Error {
	return newf(KindNormalization, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Line returns the source line recorded in err's chain, or 0.
func Line(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Line
	}
	return 0
}
