// Package qerrors provides structured error handling for Quasar with error
// kinds, key-value details, and stack capture. Every failure the runtime
// produces is categorized so callers can decide between retrying, reporting,
// and converting to a failed command result.
//
// Basic usage:
//
//	err := qerrors.New(qerrors.KindValidation, "missing required flag")
//	err = err.WithDetail("flag", "--source")
//
//	if err := pool.Resize(n); err != nil {
//	    return qerrors.Wrap(err, qerrors.KindPool, "resize rejected")
//	}
package qerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind categorizes an error for handling strategy and reporting.
type Kind string

const (
	// KindInternal is an unexpected runtime failure, including recovered panics.
	KindInternal Kind = "internal"
	// KindValidation is a command validation failure.
	KindValidation Kind = "validation"
	// KindTimeout is an execution that exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindCancelled is an execution stopped through a cancellation signal.
	KindCancelled Kind = "cancelled"
	// KindSetup is a command setup hook failure.
	KindSetup Kind = "setup"
	// KindCleanup is a command cleanup hook failure.
	KindCleanup Kind = "cleanup"
	// KindNotFound is an unknown command or unregistered token.
	KindNotFound Kind = "not_found"
	// KindConfig is an invalid configuration value.
	KindConfig Kind = "config"
	// KindPool is a pool bookkeeping failure such as an out-of-range resize.
	KindPool Kind = "pool"
)

// Error is a categorized error with structured context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []Frame
}

// Frame is a single captured call-stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value pair to the error and returns it for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind, capturing the call stack.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with a kind and message, preserving err as the cause.
// The stack of an already-structured cause is reused so the original
// creation point survives rewrapping. Returns nil when err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	var inner *Error
	if errors.As(err, &inner) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   inner.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// KindOf returns the kind of err, or KindInternal when err is not structured.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindInternal
	}
	return e.Kind
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsRetryable reports whether the failure is worth retrying. Only timeouts
// qualify; validation, cancellation, and the rest are deterministic.
func IsRetryable(err error) bool {
	return IsKind(err, KindTimeout)
}

func captureStack(skip int) []Frame {
	const maxFrames = 32
	frames := make([]Frame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		frames = append(frames, Frame{Function: fn.Name(), File: file, Line: line})
	}

	return frames
}
