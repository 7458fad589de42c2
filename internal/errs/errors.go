// Package errs provides the unified error type used across all of s3nav.
//
// Every subsystem (profile resolution, object store drivers, the directory
// client, the transcoder) wraps its native errors into *errs.Error before
// returning them to callers. Callers use the Is* predicates to handle errors
// without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindNotFound, "failed to head object", apiErr)
//
//	// In a caller, check the error kind:
//	if errs.IsAborted(err) {
//	    return outcome
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (AWS S3, MinIO, the in-memory store) map their native errors
// to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no object, no bucket
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline exceeded
	ErrKindQueryFailed              // storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindConfig                   // unknown profile, unusable credentials, unreadable config files
	ErrKindAborted                  // cooperative cancellation observed
	ErrKindThrottled                // SlowDown / throttling responses
	ErrKindUnavailable              // service unavailable / internal server errors
	ErrKindCompression              // gzip encoding failed on upload
	ErrKindDecompression            // gzip decoding failed on download
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
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
	case ErrKindConfig:
		return "config"
	case ErrKindAborted:
		return "aborted"
	case ErrKindThrottled:
		return "throttled"
	case ErrKindUnavailable:
		return "unavailable"
	case ErrKindCompression:
		return "compression_failed"
	case ErrKindDecompression:
		return "decompression_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all s3nav subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging

	// Code is the backend's own error code (NoSuchKey, ExpiredToken, ...)
	// when the driver knows it.
	Code string
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

// Newf is New with fmt.Sprintf formatting of the message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// WithCode records the backend error code and returns e.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// Aborted is the error returned when a long-running operation observes
// cancellation between requests.
func Aborted() *Error {
	return &Error{Kind: ErrKindAborted, Message: "operation aborted"}
}

// --- Predicates ---

// IsNotFound reports whether err represents a missing bucket or key.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsConfig reports whether err is a configuration error: unknown profile,
// profile without usable credentials, unreadable config files.
func IsConfig(err error) bool {
	return KindOf(err) == ErrKindConfig
}

// IsAborted reports whether err is a cooperative cancellation.
func IsAborted(err error) bool {
	return KindOf(err) == ErrKindAborted
}

// IsDecompression reports whether err is a gzip decoding failure.
func IsDecompression(err error) bool {
	return KindOf(err) == ErrKindDecompression
}

// CodeOf returns the first backend error code found in the chain.
func CodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code != "" {
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
