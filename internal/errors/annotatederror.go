// Package errors annotates errors with structured [slog.Attr] and the source location where they were created.
//
// It is a drop-in replacement for the standard library errors package so that call sites only need one import.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
)

type annotatedError struct {
	err   error
	msg   string
	attrs []slog.Attr
	pc    uintptr
	// source overrides pc when the location is resolved eagerly, e.g., for panics.
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

func (e *annotatedError) location() string {
	if e.source != "" {
		return e.source
	}
	if e.pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{e.pc}).Next()
	return fmt.Sprintf("%s:%d", frame.File, frame.Line)
}

// NewSentinel creates an error meant to be compared with [Is]. It carries no source location.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// New creates an error annotated with attrs and the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) //nolint:mnd // skip runtime.Callers and New.
	return &annotatedError{err: nil, msg: msg, attrs: attrs, pc: pcs[0], source: ""}
}

// Wrap adds msg and attrs to err. Returns nil if err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) //nolint:mnd // skip runtime.Callers and Wrap.
	return &annotatedError{err: err, msg: msg, attrs: attrs, pc: pcs[0], source: ""}
}

// DecoratePanic converts a recovered panic value into an error pointing to the line that panicked.
//
// It must be called directly from the deferred function that called recover.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	const maxDepth = 64
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	source := ""
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
			break
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}
	return &annotatedError{
		err:    nil,
		msg:    fmt.Sprintf("panic: %v", recovered),
		attrs:  []slog.Attr{slog.String("stack", string(debug.Stack()))},
		pc:     0,
		source: source,
	}
}

// SlogError returns an "error" group containing the message, the annotations of every wrapped layer, and the source
// location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{} //nolint:exhaustruct // empty attributes are ignored by handlers.
	}
	var (
		annotations []any
		source      string
	)
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		ae, ok := e.(*annotatedError) //nolint:errorlint // we walk the chain one layer at a time.
		if !ok {
			continue
		}
		for _, attr := range ae.attrs {
			annotations = append(annotations, attr)
		}
		if loc := ae.location(); loc != "" {
			source = loc
		}
	}
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// Is reports whether any error in err's tree matches target. See [stderrors.Is].
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [stderrors.As].
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [stderrors.Unwrap].
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [stderrors.Join].
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
