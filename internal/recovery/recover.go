// Package recovery turns panics in table scans and resolver calls into
// errors so one bad request cannot take the process down.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrPanic is wrapped by errors returned from RecoverToValue.
var ErrPanic = errors.New("panic recovered")

func logPanic(logger *slog.Logger, operation string, r any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("Panic recovered",
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()),
	)
}

// RecoverToError runs fn and converts a panic into a codes.Internal gRPC
// error. Use it at the Flight handler boundary.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "DoGet", func() error {
//	    return s.stream(ticket, stream)
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

// RecoverToValue runs fn and converts a panic into an error wrapping
// ErrPanic, returning the zero value of T.
//
// Example:
//
//	out, err := recovery.RecoverToValue(logger, "ResolveOne", func() (resolve.Outcome, error) {
//	    return r.ResolveOne(q), nil
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			var zero T
			result = zero
			err = fmt.Errorf("%w: %s: %v", ErrPanic, operation, r)
		}
	}()

	return fn()
}

// Recover runs fn and logs a panic without propagating it.
// Use for cleanup paths where errors can't be returned.
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
		}
	}()

	fn()
}
