// Package errors defines the error taxonomy surfaced to the host embedding
// the runtime: compile-time failures from the compiler and front end, and
// run-time failures from the VM and garbage collector. None of these are
// catchable from within the scripting language itself (spec §7).
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind identifies which part of the taxonomy an error belongs to.
type Kind string

const (
	SyntaxError  Kind = "SyntaxError"  // lexer/parser failure
	CompileError Kind = "CompileError" // unknown statement, invalid lvalue, missing body, ...
	TypeError    Kind = "TypeError"    // incompatible operand kinds, field not declared, non-function called
	ArityError   Kind = "ArityError"   // CALL argument count mismatch
	NameError    Kind = "NameError"    // identifier not found in any reachable frame or globals
	HeapError    Kind = "HeapError"    // hard heap maximum exceeded
	DomainError  Kind = "DomainError"  // integer division/modulo by zero
	ImportError  Kind = "ImportError"  // module file not found
	AbortError   Kind = "AbortError"   // __builtin_runtime_abort called
)

// Location pinpoints a source position an error occurred at.
type Location struct {
	File   string
	Line   int
	Column int
}

// RuntimeError is the concrete error type raised by the compiler, importer,
// module registry, collector, VM and stdlib (the lexer and parser report
// their own SyntaxError / ParseError types instead). It is always wrapped
// with github.com/pkg/errors at the point of first return so a host
// embedding the runtime can recover the originating stack trace with
// errors.Cause / errors.StackTrace, rather than the runtime hand-rolling its
// own call-stack bookkeeping.
type RuntimeError struct {
	Kind     Kind
	Message  string
	Location Location
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf(" (at %s:%d:%d)", e.Location.File, e.Location.Line, e.Location.Column))
	}
	return sb.String()
}

// New builds and wraps a RuntimeError of the given kind at the given location.
func New(kind Kind, loc Location, format string, args ...interface{}) error {
	return pkgerrors.WithStack(&RuntimeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

// Newf builds a location-less RuntimeError, for errors raised deep in the VM
// or GC where no source position is tracked.
func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, Location{}, format, args...)
}

// Is reports whether err (possibly wrapped by pkg/errors) is a RuntimeError
// of the given kind.
func Is(err error, kind Kind) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if re, ok := err.(*RuntimeError); ok {
			return re.Kind == kind
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
