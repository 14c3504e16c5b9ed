// Package merrors implements the taxonomy of errors raised across the
// control plane and data proxy: one Kind per row of the error table,
// mapped to an HTTP-like status class and a retriability flag.
package merrors

import (
	"errors"
	"fmt"
)

// Kind identifies which row of the error taxonomy an error belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindPermissionDenied
	KindTransactionFailure
	KindNodeNotReady
	KindDatabaseError
	KindDatabaseDoesNotExist
	KindUnavailable
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindValidation:           "validation",
	KindNotFound:             "not_found",
	KindConflict:             "conflict",
	KindUnauthorized:         "unauthorized",
	KindPermissionDenied:     "permission_denied",
	KindTransactionFailure:   "transaction_failure",
	KindNodeNotReady:         "node_not_ready",
	KindDatabaseError:        "database_error",
	KindDatabaseDoesNotExist: "database_does_not_exist",
	KindUnavailable:          "unavailable",
	KindInternal:             "internal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// statusCodes mirrors the HTTP-like status class for each Kind, the way
// the teacher's pkg/net/http WithError mapper assigns a status per
// sentinel error.
var statusCodes = map[Kind]int{
	KindUnknown:              500,
	KindValidation:           400,
	KindNotFound:             404,
	KindConflict:             409,
	KindUnauthorized:         401,
	KindPermissionDenied:     403,
	KindTransactionFailure:   400,
	KindNodeNotReady:         503,
	KindDatabaseError:        500,
	KindDatabaseDoesNotExist: 500,
	KindUnavailable:          503,
	KindInternal:             500,
}

// retriableKinds marks which Kinds a caller may safely retry:
// DatabaseError, NodeNotReady and Unavailable. There is no separate
// IoError or ServerError kind, and KindInternal is not retriable.
// DatabaseDoesNotExist is the one store condition that is fatal
// instead (§4.1) and must not be retried.
var retriableKinds = map[Kind]bool{
	KindNodeNotReady:  true,
	KindUnavailable:   true,
	KindDatabaseError: true,
}

// Error is the concrete error type produced by New; it carries a Kind
// plus an optional wrapped cause for errors.Is/As chains.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error. If args ends in an error it is
// wrapped for errors.Is/As; the remaining args are formatted with Msg
// as a printf format string.
func New(kind Kind, msg string, args ...any) error {
	var cause error
	if n := len(args); n > 0 {
		if e, ok := args[n-1].(error); ok {
			cause = e
			args = args[:n-1]
		}
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...), Err: cause}
}

// Wrap tags an existing error with a Kind without discarding it.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: err.Error(), Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal for
// errors that never went through New/Wrap.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return KindUnknown
	}
	return KindInternal
}

// StatusCode returns the HTTP-like status class for err.
func StatusCode(err error) int {
	return statusCodes[KindOf(err)]
}

// Retriable reports whether a caller may retry the operation that
// produced err.
func Retriable(err error) bool {
	return retriableKinds[KindOf(err)]
}

// Fatal reports whether err represents an unrecoverable store
// condition (§4.1 "DatabaseDoesNotExist"), distinct from the ordinary,
// retriable KindDatabaseError.
func Fatal(err error) bool {
	return KindOf(err) == KindDatabaseDoesNotExist
}
