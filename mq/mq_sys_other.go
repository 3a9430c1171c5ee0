// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build !linux

package mq

import (
	"os"
	"syscall"
)

func errNotSupported(op string) error {
	return os.NewSyscallError(op, syscall.ENOSYS)
}

func sysOpen(name string, access Access, create bool, perm os.FileMode, attrs *Attrs) (int, error) {
	return -1, errNotSupported("MQ_OPEN")
}

func sysUnlink(name string) error {
	return errNotSupported("MQ_UNLINK")
}

func sysClose(fd int) error {
	return errNotSupported("CLOSE")
}

func sysGetAttrs(fd int) (Attrs, error) {
	return Attrs{}, errNotSupported("MQ_GETSETATTR")
}

func sysSend(fd int, data []byte, prio uint) error {
	return errNotSupported("MQ_TIMEDSEND")
}

func sysReceive(fd int, data []byte) (int, uint, error) {
	return 0, 0, errNotSupported("MQ_TIMEDRECEIVE")
}

type waiter struct{}

func newWaiter(qfd int) (*waiter, error) {
	return nil, errNotSupported("EPOLL_CREATE1")
}

func (w *waiter) wait(want Readiness) (Readiness, error) {
	return NotReady, errNotSupported("EPOLL_WAIT")
}

func (w *waiter) interrupt() error {
	return errNotSupported("WRITE")
}

func (w *waiter) close() error {
	return nil
}
