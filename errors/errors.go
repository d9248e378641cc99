// Package errors provides error handling for sqb.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Wrap with context
//	if err := store.Migrate(ctx); err != nil {
//	    return errors.Wrap(err, "failed to migrate tag store")
//	}
//
//	// Reject an edit with a hint for the caller
//	return errors.WithHint(errors.Wrap(errors.ErrEditRejected, "replace token 2"),
//	    "the replacement changed tokens outside the edited position")
//
//	// Check errors
//	if errors.Is(err, errors.ErrEditRejected) {
//	    // keep the previous state
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
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the query builder.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrEditRejected indicates an edit whose re-parse did not confirm the expected structure
	ErrEditRejected = New("edit rejected")

	// ErrInvalidIndex indicates a token index or insert position outside the parsed query
	ErrInvalidIndex = New("invalid token index")

	// ErrEmptyEdit indicates an insert with nothing to insert
	ErrEmptyEdit = New("empty edit")

	// ErrUnknownKey indicates a filter key absent from the active registry
	ErrUnknownKey = New("unknown filter key")

	// ErrInvalidValue indicates a filter value that fails its value-type grammar
	ErrInvalidValue = New("invalid filter value")

	// ErrSuggestionFetchFailed indicates a value source failed to answer
	ErrSuggestionFetchFailed = New("suggestion fetch failed")

	// ErrStaleResponse indicates a suggestion response superseded by a newer request
	ErrStaleResponse = New("stale suggestion response")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsEditRejected checks if an error is or wraps ErrEditRejected
func IsEditRejected(err error) bool {
	return err != nil && Is(err, ErrEditRejected)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// WrapInvalidRequest wraps an error as an invalid-request error with context
func WrapInvalidRequest(err error, context string) error {
	return Wrap(Wrap(ErrInvalidRequest, err.Error()), context)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// RejectEdit wraps ErrEditRejected with the attempted action and a user hint
func RejectEdit(action string, hint string) error {
	return WithHint(Wrapf(ErrEditRejected, "%s", action), hint)
}
