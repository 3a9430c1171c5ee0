// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"unsafe"

	"github.com/nxgtw/mqctl/internal/common"

	"golang.org/x/sys/unix"
)

// linuxMqAttr is struct mq_attr. The kernel writes the reserved words too.
type linuxMqAttr struct {
	Flags   int /* Flags: 0 or O_NONBLOCK */
	Maxmsg  int /* Max. # of messages on queue */
	Msgsize int /* Max. message size (bytes) */
	Curmsgs int /* # of messages currently in queue */
	_       [4]int
}

func accessFlags(access Access) int {
	switch access {
	case WriteOnly:
		return unix.O_WRONLY
	case ReadWrite:
		return unix.O_RDWR
	default:
		return unix.O_RDONLY
	}
}

func sysOpen(name string, access Access, create bool, perm os.FileMode, attrs *Attrs) (int, error) {
	flags := accessFlags(access) | unix.O_NONBLOCK | unix.O_CLOEXEC
	var kattrs *linuxMqAttr
	if create {
		flags |= unix.O_CREAT | unix.O_EXCL
		if attrs != nil {
			kattrs = &linuxMqAttr{Maxmsg: int(attrs.MaxMsg), Msgsize: int(attrs.MsgSize)}
		}
	}
	return mq_open(name, flags, uint32(perm.Perm()), kattrs)
}

func sysUnlink(name string) error {
	return mq_unlink(name)
}

func sysClose(fd int) error {
	if err := unix.Close(fd); err != nil {
		return os.NewSyscallError("CLOSE", err)
	}
	return nil
}

func sysGetAttrs(fd int) (Attrs, error) {
	var kattrs linuxMqAttr
	if err := mq_getsetattr(fd, nil, &kattrs); err != nil {
		return Attrs{}, err
	}
	return Attrs{
		MaxMsg:  int64(kattrs.Maxmsg),
		MsgSize: int64(kattrs.Msgsize),
		CurMsgs: int64(kattrs.Curmsgs),
	}, nil
}

func sysSend(fd int, data []byte, prio uint) error {
	return common.UninterruptedSyscall(func() error {
		return mq_timedsend(fd, data, prio, nil)
	})
}

func sysReceive(fd int, data []byte) (int, uint, error) {
	var n int
	var prio uint32
	err := common.UninterruptedSyscall(func() error {
		var err error
		n, err = mq_timedreceive(fd, data, &prio, nil)
		return err
	})
	return n, uint(prio), err
}

// syscalls

func mq_open(name string, flags int, mode uint32, attrs *linuxMqAttr) (int, error) {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return -1, err
	}
	id, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(nameBytes)),
		uintptr(flags),
		uintptr(mode),
		uintptr(unsafe.Pointer(attrs)),
		0,
		0)
	if errno != 0 {
		return -1, common.NewSyscallError("MQ_OPEN", errno)
	}
	return int(id), nil
}

func mq_timedsend(id int, data []byte, prio uint, timeout *unix.Timespec) error {
	_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(id),
		uintptr(unsafe.Pointer(unsafe.SliceData(data))),
		uintptr(len(data)),
		uintptr(prio),
		uintptr(unsafe.Pointer(timeout)),
		0)
	return common.NewSyscallError("MQ_TIMEDSEND", errno)
}

func mq_timedreceive(id int, data []byte, prio *uint32, timeout *unix.Timespec) (int, error) {
	msgSize, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(id),
		uintptr(unsafe.Pointer(unsafe.SliceData(data))),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(prio)),
		uintptr(unsafe.Pointer(timeout)),
		0)
	if errno != 0 {
		return 0, common.NewSyscallError("MQ_TIMEDRECEIVE", errno)
	}
	return int(msgSize), nil
}

func mq_getsetattr(id int, attrs, oldAttrs *linuxMqAttr) error {
	_, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR,
		uintptr(id),
		uintptr(unsafe.Pointer(attrs)),
		uintptr(unsafe.Pointer(oldAttrs)))
	return common.NewSyscallError("MQ_GETSETATTR", errno)
}

func mq_unlink(name string) error {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(nameBytes)), 0, 0)
	return common.NewSyscallError("MQ_UNLINK", errno)
}
