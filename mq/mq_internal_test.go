// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCheckName(t *testing.T) {
	a := assert.New(t)
	a.NoError(checkName("/queue"))
	a.NoError(checkName("/q.1-2_3"))
	a.Error(checkName("queue"))
	a.Error(checkName("/"))
	a.Error(checkName("/a/b"))
	a.Error(checkName(""))
	a.Equal("queue", kernelName("/queue"))
}

func TestCheckMqPerm(t *testing.T) {
	a := assert.New(t)
	a.True(checkMqPerm(0644))
	a.True(checkMqPerm(0600))
	a.True(checkMqPerm(0))
	a.False(checkMqPerm(0755))
	a.False(checkMqPerm(0777))
	a.False(checkMqPerm(os.ModeDir | 0644))
}

func TestKindOfErrno(t *testing.T) {
	a := assert.New(t)
	cases := map[syscall.Errno]Kind{
		syscall.EEXIST:       AlreadyExists,
		syscall.ENOENT:       NotFound,
		syscall.EACCES:       PermissionDenied,
		syscall.EPERM:        PermissionDenied,
		syscall.EAGAIN:       WouldBlock,
		syscall.EINTR:        Interrupted,
		syscall.EMSGSIZE:     ProtocolViolation,
		syscall.EINVAL:       InvalidArgument,
		syscall.ENAMETOOLONG: InvalidArgument,
		syscall.EMFILE:       Other,
	}
	for errno, kind := range cases {
		err := os.NewSyscallError("MQ_OPEN", errno)
		a.Equal(kind, KindOf(err), errno.Error())
		a.Equal(kind, KindOf(errors.Wrap(err, "wrapped")), errno.Error())
	}
	a.Equal(Other, KindOf(nil))
	a.Equal(Other, KindOf(errors.New("plain")))
}

func TestNewError(t *testing.T) {
	a := assert.New(t)
	a.NoError(newError("open", "/q", nil))

	err := newError("open", "/q", os.NewSyscallError("MQ_OPEN", syscall.ENOENT))
	a.True(IsKind(err, NotFound))
	a.Equal("open /q: MQ_OPEN: no such file or directory", err.Error())

	inner := NewError("wait", "", Interrupted, errors.New("wait interrupted"))
	err = newError("receive", "/q", inner)
	a.Equal(error(inner), err)
	a.Equal("/q", inner.Name)
	a.True(IsKind(errors.Wrap(err, "follow"), Interrupted))

	a.Equal("send /q: would block", NewError("send", "/q", WouldBlock, nil).Error())
}

func TestKindString(t *testing.T) {
	a := assert.New(t)
	a.Equal("already exists", AlreadyExists.String())
	a.Equal("write failure", WriteFailure.String())
	a.Equal("error", Other.String())
	a.Equal("O_WRONLY", WriteOnly.String())
	a.Equal("readable", Readable.String())
}
