package domain

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ErrorKind is the category of a persisted query rejection.
type ErrorKind string

const (
	// KindNotSupported indicates the client sent an unsupported protocol version.
	KindNotSupported ErrorKind = "PersistedQueryNotSupported"

	// KindNotFound indicates a hash-only request with no registered query.
	// Clients recover by resending with the full query attached.
	KindNotFound ErrorKind = "PersistedQueryNotFound"

	// KindHashMismatch indicates the supplied query does not hash to the supplied hash.
	KindHashMismatch ErrorKind = "PersistedQueryHashMismatch"
)

// Machine-readable codes placed in errors[].extensions.code.
const (
	CodeNotSupported  = "PERSISTED_QUERY_NOT_SUPPORTED"
	CodeNotFound      = "PERSISTED_QUERY_NOT_FOUND"
	CodeHashMismatch  = "PERSISTED_QUERY_HASH_MISMATCH"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)

// APQError is a user-facing persisted query protocol outcome. It is never a
// server fault.
type APQError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *APQError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the extensions.code value for the error.
func (e *APQError) Code() string {
	switch e.Kind {
	case KindNotSupported:
		return CodeNotSupported
	case KindNotFound:
		return CodeNotFound
	case KindHashMismatch:
		return CodeHashMismatch
	default:
		return CodeInternalError
	}
}

// GQLError renders the error as a GraphQL error object.
func (e *APQError) GQLError() *gqlerror.Error {
	return &gqlerror.Error{
		Message:    e.Message,
		Extensions: map[string]interface{}{"code": e.Code()},
	}
}

// ErrNotSupported creates an unsupported version error.
func ErrNotSupported() *APQError {
	return &APQError{Kind: KindNotSupported, Message: "PersistedQueryNotSupported"}
}

// ErrNotFound creates an unknown hash error.
func ErrNotFound() *APQError {
	return &APQError{Kind: KindNotFound, Message: "PersistedQueryNotFound"}
}

// ErrHashMismatch creates a hash mismatch error.
func ErrHashMismatch() *APQError {
	return &APQError{Kind: KindHashMismatch, Message: "provided sha does not match query"}
}

// InternalError wraps an unexpected fault, typically a backing store failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an APQError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apqErr *APQError
	return errors.As(err, &apqErr) && apqErr.Kind == kind
}

// IsInternal reports whether err wraps an InternalError.
func IsInternal(err error) bool {
	var internal *InternalError
	return errors.As(err, &internal)
}
