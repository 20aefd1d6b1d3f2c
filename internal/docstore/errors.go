package docstore

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes document store failures.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the document does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeDecode indicates the stored payload does not match the expected shape.
	ErrCodeDecode ErrorCode = "DECODE"

	// ErrCodeTransport indicates a network or service failure.
	ErrCodeTransport ErrorCode = "TRANSPORT"
)

// Error is the single error type surfaced by the document store.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the store operation that failed (fetch, fetchAll, set, replace, merge).
	Op string

	// Collection and ID locate the document, when known.
	Collection string
	ID         string

	// Field names the offending field for decode errors.
	Field string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	loc := e.Collection
	if e.ID != "" {
		loc = e.Collection + "/" + e.ID
	}
	msg := fmt.Sprintf("%s %s: %s", e.Op, loc, e.Code)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a NOT_FOUND error.
func NotFound(op, collection, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Op: op, Collection: collection, ID: id}
}

// Transport wraps a backend failure as a TRANSPORT error.
func Transport(op, collection, id string, err error) *Error {
	return &Error{Code: ErrCodeTransport, Op: op, Collection: collection, ID: id, Err: err}
}

// Decode creates a DECODE error for a field (field may be empty).
func Decode(field string, err error) *Error {
	return &Error{Code: ErrCodeDecode, Op: "decode", Field: field, Err: err}
}

// locate fills in the operation and document location if not already set.
// Errors that are not *Error are wrapped with the fallback code.
func locate(err error, fallback ErrorCode, op, collection, id string) error {
	var se *Error
	if errors.As(err, &se) {
		if se.Op == "" || se.Op == "decode" {
			se.Op = op
		}
		if se.Collection == "" {
			se.Collection = collection
		}
		if se.ID == "" {
			se.ID = id
		}
		return err
	}
	return &Error{Code: fallback, Op: op, Collection: collection, ID: id, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNotFound returns true if the error is a NOT_FOUND store error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsDecode returns true if the error is a DECODE store error.
func IsDecode(err error) bool { return hasCode(err, ErrCodeDecode) }

// IsTransport returns true if the error is a TRANSPORT store error.
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsRetryable reports whether retrying the failed operation could succeed.
// NOT_FOUND and DECODE are deterministic; everything else is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsNotFound(err) && !IsDecode(err)
}
