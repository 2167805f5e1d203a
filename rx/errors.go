package rx

import (
	"errors"
	"fmt"
	"log/slog"
)

// LifetimeError reports a broken lifetime or structural invariant.
//
// Lifetime errors are programmer errors, not runtime conditions:
//   - Self insert: a subscription nested into itself
//   - Cycle: a subscription nested under one of its own descendants
//   - State on stopped: arena allocation after Stop
//   - Terminal panic: an error or complete handler panicked
//   - Unhandled error: an error reached an observer with no error handler
//
// They are raised with panic and are not meant to be recovered by callers.
type LifetimeError struct {
	// Code identifies the violation.
	Code LifetimeErrorCode

	// Message is a human-readable description.
	Message string

	// ID is the subscription the violation was detected on (0 if unknown).
	ID uint64

	// Cause is the underlying value for terminal panics and unhandled errors.
	Cause error
}

// LifetimeErrorCode categorizes lifetime errors.
type LifetimeErrorCode string

const (
	// ErrCodeSelfInsert indicates Insert was called with the receiver itself.
	ErrCodeSelfInsert LifetimeErrorCode = "SELF_INSERT"

	// ErrCodeCycle indicates Insert would create a lifetime cycle.
	ErrCodeCycle LifetimeErrorCode = "LIFETIME_CYCLE"

	// ErrCodeStateOnStopped indicates state was allocated on a stopped subscription.
	ErrCodeStateOnStopped LifetimeErrorCode = "STATE_ON_STOPPED"

	// ErrCodeTerminalPanic indicates an error or complete handler panicked.
	ErrCodeTerminalPanic LifetimeErrorCode = "TERMINAL_PANIC"

	// ErrCodeUnhandledError indicates an error was delivered to an observer without an error handler.
	ErrCodeUnhandledError LifetimeErrorCode = "UNHANDLED_ERROR"
)

// Error implements the error interface.
func (e *LifetimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != 0 {
		msg = fmt.Sprintf("%s (subscription=%d)", msg, e.ID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the cause, if any.
func (e *LifetimeError) Unwrap() error {
	return e.Cause
}

// IsLifetimeError returns true if err is (or wraps) a LifetimeError.
func IsLifetimeError(err error) bool {
	var le *LifetimeError
	return errors.As(err, &le)
}

// IsCycleError returns true if err is a lifetime cycle or self insert error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var le *LifetimeError
	if errors.As(err, &le) {
		return le.Code == ErrCodeCycle || le.Code == ErrCodeSelfInsert
	}
	return false
}

// fatal logs the violation and panics with it.
func fatal(err *LifetimeError) {
	slog.Error("lifetime violation",
		"code", string(err.Code),
		"subscription", err.ID,
		"error", err.Message,
	)
	panic(err)
}

// HandlerPanicError carries a value recovered from a panicking next handler.
// It is delivered through the observer's error channel.
type HandlerPanicError struct {
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("next handler panicked: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *HandlerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// asPanicError converts a recovered value into an error for delivery.
// Fatal lifetime errors are re-raised.
func asPanicError(r any) error {
	if le, ok := r.(*LifetimeError); ok {
		panic(le)
	}
	return &HandlerPanicError{Value: r}
}
