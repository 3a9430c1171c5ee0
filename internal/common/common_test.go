// Copyright 2016 Aleksandr Demakin. All rights reserved.

package common

import (
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSyscallErrHasCode(t *testing.T) {
	a := assert.New(t)
	err := os.NewSyscallError("MQ_OPEN", syscall.ENOENT)
	a.True(SyscallErrHasCode(err, syscall.ENOENT))
	a.False(SyscallErrHasCode(err, syscall.EEXIST))
	a.True(SyscallErrHasCode(errors.Wrap(err, "open failed"), syscall.ENOENT))
	a.False(SyscallErrHasCode(errors.New("plain"), syscall.ENOENT))
	a.False(SyscallErrHasCode(nil, syscall.ENOENT))
}

func TestNewSyscallError(t *testing.T) {
	a := assert.New(t)
	a.NoError(NewSyscallError("MQ_UNLINK", 0))
	err := NewSyscallError("MQ_UNLINK", syscall.EACCES)
	a.Error(err)
	a.True(SyscallErrHasCode(err, syscall.EACCES))
	a.Contains(err.Error(), "MQ_UNLINK")
}

func TestUninterruptedSyscall(t *testing.T) {
	a := assert.New(t)
	calls := 0
	err := UninterruptedSyscall(func() error {
		calls++
		if calls < 3 {
			return os.NewSyscallError("EPOLL_WAIT", syscall.EINTR)
		}
		return nil
	})
	a.NoError(err)
	a.Equal(3, calls)

	calls = 0
	err = UninterruptedSyscall(func() error {
		calls++
		return os.NewSyscallError("MQ_TIMEDSEND", syscall.EAGAIN)
	})
	a.True(SyscallErrHasCode(err, syscall.EAGAIN))
	a.Equal(1, calls)
}
