// Package xerrors adds stack and call-site capture to errors so the logger
// can report where an error was created or wrapped.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 64

type withStack struct {
	err error
	pcs []uintptr
}

func (w *withStack) Error() string       { return w.err.Error() }
func (w *withStack) Unwrap() error       { return w.err }
func (w *withStack) StackPCs() []uintptr { return w.pcs }

// skip counts frames above the caller of the exported function.
func stack(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(3+skip, pcs)
	return pcs[:n]
}

// WithStack records the caller's stack on err. Nil stays nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &withStack{err: err, pcs: stack(0)}
}

// EnsureTrace is WithStack unless err already carries a stack.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var hs interface{ StackPCs() []uintptr }
	if errors.As(err, &hs) && len(hs.StackPCs()) > 0 {
		return err
	}
	return &withStack{err: err, pcs: stack(0)}
}

type wrap struct {
	err error
	msg string
	pc  uintptr
}

func (w *wrap) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrap) Unwrap() error { return w.err }
func (w *wrap) PC() uintptr   { return w.pc }

func callerPC() uintptr {
	var pcs [1]uintptr
	// runtime.Callers, callerPC, Wrap/Wrapf
	if runtime.Callers(3, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// Wrap prefixes err with msg and records the call site. Nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrap{err: err, msg: msg, pc: callerPC()}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrap{err: err, msg: fmt.Sprintf(format, args...), pc: callerPC()}
}

// New returns an error with msg and the caller's stack.
func New(msg string) error {
	return &withStack{err: errors.New(msg), pcs: stack(0)}
}

// Newf is New with a format string. %w verbs are honoured.
func Newf(format string, args ...any) error {
	return &withStack{err: fmt.Errorf(format, args...), pcs: stack(0)}
}
