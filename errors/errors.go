// Package errors provides error handling for qlint.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Marks, so a wrapped or re-messaged error still matches its kind
//   - User-facing hints
//
// Usage:
//
//	// Wrap with context
//	if err := reader.ReadRules(); err != nil {
//	    return errors.Wrap(err, "failed to read rule definitions")
//	}
//
//	// Check the kind
//	if errors.Is(err, errors.ErrInconsistentStorage) {
//	    // ask the user to update the binding
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// GetStack returns the reportable stack trace attached to an error, if any.
var GetStack = crdb.GetReportableStackTrace

// Assertions
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Bootstrap error kinds. Use these with errors.Is(); wrap them with
// errors.Wrap() to add context while preserving the kind.
var (
	// ErrComponentNotFound indicates no registration in the scope chain matches a lookup
	ErrComponentNotFound = New("component not found")

	// ErrAmbiguousComponent indicates more than one registration matches a single-result lookup
	ErrAmbiguousComponent = New("ambiguous component")

	// ErrCircularDependency indicates a component was requested while it was being built
	ErrCircularDependency = New("circular dependency")

	// ErrContainerStopped indicates a lookup against a scope that has been stopped
	ErrContainerStopped = New("container stopped")

	// ErrInconsistentStorage indicates local storage disagrees with itself
	// (e.g. an active rule referencing an unknown rule definition)
	ErrInconsistentStorage = New("inconsistent storage")

	// ErrUnsupportedServer indicates installed server plugins fail the minimum-version policy
	ErrUnsupportedServer = New("unsupported server")

	// ErrInvalidPolicy indicates the minimum-version policy could not be loaded
	ErrInvalidPolicy = New("invalid minimum version policy")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsResolutionError reports whether err is one of the component lookup
// failures. These are wiring errors and must reach the top of the bootstrap
// sequence unmodified.
func IsResolutionError(err error) bool {
	return err != nil && IsAny(err, ErrComponentNotFound, ErrAmbiguousComponent, ErrCircularDependency, ErrContainerStopped)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInconsistentStorageError checks if an error is or wraps ErrInconsistentStorage
func IsInconsistentStorageError(err error) bool {
	return err != nil && Is(err, ErrInconsistentStorage)
}

// IsUnsupportedServerError checks if an error is or wraps ErrUnsupportedServer
func IsUnsupportedServerError(err error) bool {
	return err != nil && Is(err, ErrUnsupportedServer)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInconsistentStorageError creates an inconsistent-storage error with a
// formatted message and the standard hint for stale local storage.
func NewInconsistentStorageError(cause error, format string, args ...interface{}) error {
	err := Wrapf(ErrInconsistentStorage, format, args...)
	if cause != nil {
		err = WithSecondaryError(err, cause)
	}
	return WithHint(err, "Please update the server binding.")
}

// NewUnsupportedServerError returns an error whose message is exactly msg
// and which matches ErrUnsupportedServer.
func NewUnsupportedServerError(msg string) error {
	return Mark(New(msg), ErrUnsupportedServer)
}
