// Package errs provides the unified error type used across all of FrameCheck.
//
// Every subsystem (dtype, schema, table backends, database, filestore, server)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// backend-specific packages.
//
// Usage:
//
//	// In a table backend — reject an unknown column:
//	return errs.Newf(errs.ErrKindColumnNotFound, "no column %q", name)
//
//	// In a caller — check error kind:
//	if errs.IsColumnNotFound(err) {
//	    // programming error: the caller asked for a column outside the schema
//	}
//
// Note the split this package enforces: expected, data-dependent validation
// failures are reported as schema.Discrepancy values, never as errors. Only
// programmer-error and infrastructure conditions travel as *errs.Error.
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL, MinIO, in-memory tables, …) map their native
// errors to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket, no table
	ErrKindColumnNotFound           // a column name outside the table's schema
	ErrKindDuplicateColumn          // two schema columns share a name
	ErrKindCastFailed               // a per-value cast could not be performed
	ErrKindUnsupportedType          // a backend type with no dtype mapping
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindColumnNotFound:
		return "column_not_found"
	case ErrKindDuplicateColumn:
		return "duplicate_column"
	case ErrKindCastFailed:
		return "cast_failed"
	case ErrKindUnsupportedType:
		return "unsupported_type"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all FrameCheck subsystems.
// Backends produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original backend-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message and no cause.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown table/bucket, …).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsColumnNotFound reports whether err was caused by asking a table for a
// column it does not have. This indicates a programming error in the caller.
func IsColumnNotFound(err error) bool {
	return kindOf(err) == ErrKindColumnNotFound
}

// IsDuplicateColumn reports whether err was caused by a schema declaration
// containing the same column name twice.
func IsDuplicateColumn(err error) bool {
	return kindOf(err) == ErrKindDuplicateColumn
}

// IsCastFailed reports whether err was caused by a per-value cast failure
// (value out of the target type's range, wrong runtime representation, …).
func IsCastFailed(err error) bool {
	return kindOf(err) == ErrKindCastFailed
}

// IsUnsupportedType reports whether err was caused by a backend column type
// that has no declared-type mapping.
func IsUnsupportedType(err error) bool {
	return kindOf(err) == ErrKindUnsupportedType
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure
// (SQL execution error, storage I/O error, …).
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return kindOf(err) == ErrKindPermissionDenied
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
