// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"syscall"

	"github.com/nxgtw/mqctl/internal/common"

	"github.com/pkg/errors"
)

// Kind classifies failures of queue operations.
type Kind int

const (
	// Other is any failure, which does not fall into one of the categories below.
	Other Kind = iota
	// AlreadyExists is returned on exclusive creation of an existing queue.
	AlreadyExists
	// NotFound means there is no queue with the given name.
	NotFound
	// PermissionDenied means the access mode is not allowed by queue permissions.
	PermissionDenied
	// WouldBlock is returned by non-blocking operations on a full or empty queue.
	WouldBlock
	// Interrupted means a pending wait was interrupted.
	Interrupted
	// ProtocolViolation means the kernel broke its contract: a message did not fit
	// into a buffer of the queue's message size, or a wait returned without readiness.
	ProtocolViolation
	// WriteFailure means received data could not be written to the output.
	WriteFailure
	// InvalidArgument is returned for malformed names, permissions or priorities.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case AlreadyExists:
		return "already exists"
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	case WouldBlock:
		return "would block"
	case Interrupted:
		return "interrupted"
	case ProtocolViolation:
		return "protocol violation"
	case WriteFailure:
		return "write failure"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "error"
	}
}

// Error is returned by all queue operations.
type Error struct {
	Op   string
	Name string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": " + e.Kind.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error of the given kind.
func NewError(op, name string, kind Kind, err error) *Error {
	return &Error{Op: op, Name: name, Kind: kind, Err: err}
}

// KindOf returns the kind of err. Errors, which were not produced by this package,
// are classified by their syscall error code, if any.
func KindOf(err error) Kind {
	if err == nil {
		return Other
	}
	var mqErr *Error
	if errors.As(err, &mqErr) {
		return mqErr.Kind
	}
	return kindOfErrno(err)
}

// IsKind returns true, if err is of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindOfErrno(err error) Kind {
	errno, ok := common.SyscallErrno(err)
	if !ok {
		return Other
	}
	switch errno {
	case syscall.EEXIST:
		return AlreadyExists
	case syscall.ENOENT:
		return NotFound
	case syscall.EACCES, syscall.EPERM:
		return PermissionDenied
	case syscall.EAGAIN:
		return WouldBlock
	case syscall.EINTR:
		return Interrupted
	case syscall.EMSGSIZE:
		return ProtocolViolation
	case syscall.EINVAL, syscall.ENAMETOOLONG:
		return InvalidArgument
	default:
		return Other
	}
}

// newError wraps err into *Error. Errors of this package are returned as is,
// getting the queue name, if they have none.
func newError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var mqErr *Error
	if errors.As(err, &mqErr) {
		if mqErr.Name == "" {
			mqErr.Name = name
		}
		return err
	}
	return &Error{Op: op, Name: name, Kind: kindOfErrno(err), Err: err}
}
