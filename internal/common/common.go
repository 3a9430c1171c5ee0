// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package common contains errno helpers shared by the syscall layers.
package common

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// SyscallErrno extracts a syscall.Errno from err, looking through
// *os.SyscallError and any wrapping done with github.com/pkg/errors.
func SyscallErrno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// SyscallErrHasCode returns true, if err is a syscall error with the given code.
func SyscallErrHasCode(err error, code syscall.Errno) bool {
	errno, ok := SyscallErrno(err)
	return ok && errno == code
}

// IsInterruptedSyscallErr returns true, if the syscall was interrupted by a signal.
func IsInterruptedSyscallErr(err error) bool {
	return SyscallErrHasCode(err, syscall.EINTR)
}

// UninterruptedSyscall calls f until it returns an error other than EINTR.
// The go runtime delivers signals to its threads on its own (preemption, profiling),
// so EINTR here does not mean that the operator asked the process to stop.
func UninterruptedSyscall(f func() error) error {
	for {
		if err := f(); !IsInterruptedSyscallErr(err) {
			return err
		}
	}
}

// NewSyscallError wraps a non-zero errno into *os.SyscallError.
// It returns nil for a zero errno.
func NewSyscallError(op string, errno syscall.Errno) error {
	if errno == 0 {
		return nil
	}
	return os.NewSyscallError(op, errno)
}
