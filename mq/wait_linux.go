// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"encoding/binary"
	"os"

	"github.com/nxgtw/mqctl/internal/common"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// waiter watches a single queue descriptor. An eventfd registered next to it
// is used to interrupt the wait.
type waiter struct {
	epfd   int
	evfd   int
	qfd    int
	events uint32 // events the queue descriptor is currently registered for
}

func newWaiter(qfd int) (w *waiter, err error) {
	w = &waiter{epfd: -1, evfd: -1, qfd: qfd}
	defer func() {
		if err != nil {
			w.close()
			w = nil
		}
	}()
	if w.epfd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC); err != nil {
		return w, os.NewSyscallError("EPOLL_CREATE1", err)
	}
	if w.evfd, err = unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK); err != nil {
		return w, os.NewSyscallError("EVENTFD", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(w.evfd)}
	if err = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, w.evfd, &ev); err != nil {
		return w, os.NewSyscallError("EPOLL_CTL", err)
	}
	return w, nil
}

func readinessEvents(want Readiness) uint32 {
	if want == Writable {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN
}

func (w *waiter) watch(events uint32) error {
	if w.events == events {
		return nil
	}
	op := unix.EPOLL_CTL_MOD
	if w.events == 0 {
		op = unix.EPOLL_CTL_ADD
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(w.qfd)}
	if err := unix.EpollCtl(w.epfd, op, w.qfd, &ev); err != nil {
		return os.NewSyscallError("EPOLL_CTL", err)
	}
	w.events = events
	return nil
}

// wait blocks without a timeout until the queue reports readiness or the waiter is interrupted.
func (w *waiter) wait(want Readiness) (Readiness, error) {
	events := readinessEvents(want)
	if err := w.watch(events); err != nil {
		return NotReady, err
	}
	var fired [2]unix.EpollEvent
	var n int
	err := common.UninterruptedSyscall(func() error {
		var err error
		if n, err = unix.EpollWait(w.epfd, fired[:], -1); err != nil {
			return os.NewSyscallError("EPOLL_WAIT", err)
		}
		return nil
	})
	if err != nil {
		return NotReady, err
	}
	result := NotReady
	for _, ev := range fired[:n] {
		switch int(ev.Fd) {
		case w.evfd:
			return NotReady, NewError("wait", "", Interrupted, errors.New("wait interrupted"))
		case w.qfd:
			if ev.Events&^events != 0 {
				return NotReady, NewError("wait", "", ProtocolViolation,
					errors.Errorf("unexpected readiness events %#x", ev.Events))
			}
			if ev.Events&events != 0 {
				result = want
			}
		}
	}
	return result, nil
}

// interrupt makes the eventfd readable. It is never drained,
// so all waits after an interrupt fail too.
func (w *waiter) interrupt() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(w.evfd, buf[:]); err != nil && err != unix.EAGAIN {
		return os.NewSyscallError("WRITE", err)
	}
	return nil
}

func (w *waiter) close() error {
	var err error
	for _, fd := range []int{w.evfd, w.epfd} {
		if fd < 0 {
			continue
		}
		if cerr := unix.Close(fd); cerr != nil && err == nil {
			err = os.NewSyscallError("CLOSE", cerr)
		}
	}
	w.evfd, w.epfd = -1, -1
	return err
}
