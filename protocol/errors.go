package protocol

import (
	"errors"
	"fmt"
)

// Kinds of failure which clients surface. Each *Error matches exactly one.
var (
	// ErrConnect is a failure to establish a connection or derive a handle
	// from it. No action was attempted.
	ErrConnect = errors.New("connect failure")
	// ErrTimeout is a failure of a SQL connection to be acquired within its
	// deadline, or an interruption of the caller while waiting for it.
	ErrTimeout = errors.New("timeout")
	// ErrOperation is a failure of a collaborator call made with an acquired
	// handle, or a rejection of the operation's arguments. Progress of a
	// failed multi-chunk batch is unknown.
	ErrOperation = errors.New("operation failure")
	// ErrRelease is a failure to close a handle or connection. It is logged,
	// and never returned from a client operation.
	ErrRelease = errors.New("release failure")

	// ErrInvalidArgument is matched by every *ValidationError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is a failure of a named operation.
type Error struct {
	// Op is the name of the failed operation, eg "createTable".
	Op string
	// Kind is one of ErrConnect, ErrTimeout, ErrOperation or ErrRelease.
	Kind error
	// Err is the underlying cause.
	Err error
}

// NewError returns an *Error of the operation, kind and cause. If |err| is
// already an *Error it's returned unmodified, retaining its original kind.
func NewError(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the kind and cause, such that errors.Is matches either.
func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// Cause returns the underlying cause, for github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.Err }

// KindOf returns the failure kind of |err|, or nil if |err| is not a failure
// of a client operation.
func KindOf(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return nil
}
