//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package ubcerr implements the generator's error taxonomy: a single
// sum-type error surfaced to main, instead of scattered ad hoc
// exceptions.
package ubcerr

import (
	"fmt"
)

// Kind classifies a generator error.
type Kind byte

// Error kinds.
const (
	// InputFormat marks an unparseable DV descriptor, a missing
	// filename token, or a malformed bit-relation line.
	InputFormat Kind = iota
	// Range marks a parameter outside its declared bounds.
	Range
	// Capacity marks too many DVs to pack into the mask type.
	Capacity
	// IO marks a file open/read/write failure.
	IO
	// Invariant marks a post-selection or synthesis invariant
	// violation.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case Range:
		return "Range"
	case Capacity:
		return "Capacity"
	case IO:
		return "IO"
	case Invariant:
		return "Invariant"
	default:
		return fmt.Sprintf("{Kind %d}", byte(k))
	}
}

// Error is the generator's single error type. It wraps an underlying
// cause while exposing its Kind for top-level exit-code dispatch.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// Wrap creates an Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...), Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
