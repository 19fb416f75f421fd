// Package errs gives the CORE's error taxonomy (spec §7) a concrete Go
// shape: one Kind per row of that table, constructed explicitly at each
// call site rather than derived from a From-conversion table.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which row of the CORE's error taxonomy an Error belongs to.
type Kind int

const (
	// Io covers any filesystem or gzip stream I/O failure.
	Io Kind = iota
	// CacheIo covers any KV transport failure.
	CacheIo
	// DecodeArchiveHeader covers archive header signature mismatch or truncation.
	DecodeArchiveHeader
	// RecordDecode covers a record decoder rejecting a byte run.
	RecordDecode
	// RecordTooLarge covers a caller writing a single record/byte slice > MaxRecordSize.
	RecordTooLarge
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case CacheIo:
		return "cache_io"
	case DecodeArchiveHeader:
		return "decode_archive_header"
	case RecordDecode:
		return "record_decode"
	case RecordTooLarge:
		return "record_too_large"
	default:
		return "unknown"
	}
}

// Error is an opaque tagged error value: a Kind plus a human-readable
// message and, usually, a wrapped underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, errs.New(errs.RecordDecode, "", nil)) or, more
// usefully, errs.HasKind(err, errs.RecordDecode).
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return e.Kind == o.Kind
	}
	return false
}

// New constructs an Error of the given kind, wrapping cause (which may be nil).
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrap is New with the kind's name as the message; cause is kept as the wrapped Cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: kind.String(), Cause: cause}
}

// HasKind reports whether err is (or wraps) an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
