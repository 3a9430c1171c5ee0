// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	// DefaultMaxMsg is the default queue capacity used by create.
	DefaultMaxMsg = 10
	// DefaultMsgSize is the default message size used by create.
	DefaultMsgSize = 1024
	// MaxPriority is the exclusive upper bound for message priorities (MQ_PRIO_MAX).
	MaxPriority = 32768
)

// Messenger is an interface which must be satisfied by any message queue handle.
type Messenger interface {
	Send(data []byte, prio uint) error
	Receive(data []byte) (int, uint, error)
	io.Closer
}

// Waiter waits for a queue to become ready for the given operation.
type Waiter interface {
	Wait(want Readiness) (Readiness, error)
}

// this is to ensure, that Queue satisfies queue interfaces.
var (
	_ Messenger = (*Queue)(nil)
	_ Waiter    = (*Queue)(nil)
)

// Access is the access mode of an open queue.
type Access int

const (
	// ReadOnly opens the queue to receive messages only.
	ReadOnly Access = iota
	// WriteOnly opens the queue to send messages only.
	WriteOnly
	// ReadWrite opens the queue to both send and receive messages.
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "O_RDONLY"
	case WriteOnly:
		return "O_WRONLY"
	case ReadWrite:
		return "O_RDWR"
	default:
		return "O_INVALID"
	}
}

// Readiness is the outcome of a readiness wait.
type Readiness int

const (
	// NotReady means the wait returned, but the queue reported no readiness.
	NotReady Readiness = iota
	// Readable means at least one message can be received.
	Readable
	// Writable means at least one message can be sent.
	Writable
)

func (r Readiness) String() string {
	switch r {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	default:
		return "not ready"
	}
}

// Attrs is a snapshot of queue attributes.
type Attrs struct {
	// MaxMsg is the queue capacity.
	MaxMsg int64
	// MsgSize is the maximum message size. It never changes after creation.
	MsgSize int64
	// CurMsgs is the number of messages currently in the queue.
	CurMsgs int64
}

// Queue is an open handle of a named message queue.
// It must be closed exactly once.
type Queue struct {
	fd       int
	name     string
	access   Access
	blocking bool

	// mu guards waiter against a concurrent Interrupt and Close.
	mu     sync.Mutex
	waiter *waiter
}

// Create creates a new queue and opens it for reading and writing.
// It fails with AlreadyExists, if a queue with the given name exists.
//	name - queue name, must start with '/' and must not contain other slashes.
//	maxMsg - queue capacity.
//	msgSize - maximum message size.
//	perm - object's permission bits. Execute bits are not allowed.
func Create(name string, maxMsg, msgSize int64, perm os.FileMode) (*Queue, error) {
	if err := checkName(name); err != nil {
		return nil, NewError("create", name, InvalidArgument, err)
	}
	if !checkMqPerm(perm) {
		return nil, NewError("create", name, InvalidArgument, errors.Errorf("invalid mq permissions %#o", perm))
	}
	if maxMsg <= 0 || msgSize <= 0 {
		return nil, NewError("create", name, InvalidArgument,
			errors.Errorf("invalid queue size: maxmsg=%d, msgsize=%d", maxMsg, msgSize))
	}
	fd, err := sysOpen(kernelName(name), ReadWrite, true, perm, &Attrs{MaxMsg: maxMsg, MsgSize: msgSize})
	if err != nil {
		return nil, newError("create", name, err)
	}
	return newQueue(fd, name, ReadWrite, false)
}

// Open opens an existing queue.
// It fails with NotFound, if there is no such queue, and with PermissionDenied,
// if the access mode is not allowed.
// If blocking is false, Send and Receive fail with WouldBlock instead of waiting.
func Open(name string, access Access, blocking bool) (*Queue, error) {
	if err := checkName(name); err != nil {
		return nil, NewError("open", name, InvalidArgument, err)
	}
	if access < ReadOnly || access > ReadWrite {
		return nil, NewError("open", name, InvalidArgument, errors.Errorf("invalid access mode %d", access))
	}
	fd, err := sysOpen(kernelName(name), access, false, 0, nil)
	if err != nil {
		return nil, newError("open", name, err)
	}
	return newQueue(fd, name, access, blocking)
}

// Unlink removes the queue name from the system. Queues opened by other
// processes stay valid until they are closed.
func Unlink(name string) error {
	if err := checkName(name); err != nil {
		return NewError("unlink", name, InvalidArgument, err)
	}
	return newError("unlink", name, sysUnlink(kernelName(name)))
}

func newQueue(fd int, name string, access Access, blocking bool) (*Queue, error) {
	w, err := newWaiter(fd)
	if err != nil {
		sysClose(fd)
		return nil, newError("open", name, errors.Wrap(err, "failed to init readiness wait"))
	}
	return &Queue{
		fd:       fd,
		name:     name,
		access:   access,
		blocking: blocking,
		waiter:   w,
	}, nil
}

// Name returns the name of the queue.
func (q *Queue) Name() string {
	return q.name
}

// Access returns the access mode the queue was opened with.
func (q *Queue) Access() Access {
	return q.access
}

// Attrs returns current queue attributes.
func (q *Queue) Attrs() (Attrs, error) {
	attrs, err := sysGetAttrs(q.fd)
	if err != nil {
		return Attrs{}, newError("getattr", q.name, err)
	}
	return attrs, nil
}

// Send sends a message with the given priority.
// The message is enqueued as a whole or not at all. A message longer than
// the queue's message size fails with InvalidArgument. If the queue is full,
// a non-blocking queue fails with WouldBlock, and a blocking one waits for free space.
func (q *Queue) Send(data []byte, prio uint) error {
	if prio >= MaxPriority {
		return NewError("send", q.name, InvalidArgument, errors.Errorf("priority %d is out of range [0, %d)", prio, MaxPriority))
	}
	for {
		err := sysSend(q.fd, data, prio)
		if err == nil {
			return nil
		}
		if KindOf(err) == ProtocolViolation {
			// EMSGSIZE: the caller passed a message longer than the queue allows.
			return NewError("send", q.name, InvalidArgument,
				errors.Wrapf(err, "message of %d bytes is too long", len(data)))
		}
		if !q.blocking || KindOf(err) != WouldBlock {
			return newError("send", q.name, err)
		}
		if _, err = q.waiter.wait(Writable); err != nil {
			return newError("send", q.name, err)
		}
	}
}

// Receive receives a message into data, returning its length and priority.
// data must be at least Attrs().MsgSize bytes long. If the queue is empty,
// a non-blocking queue fails with WouldBlock, and a blocking one waits for a message.
func (q *Queue) Receive(data []byte) (int, uint, error) {
	for {
		n, prio, err := sysReceive(q.fd, data)
		if err == nil {
			if n > len(data) {
				return 0, 0, NewError("receive", q.name, ProtocolViolation,
					errors.Errorf("the kernel reported %d bytes for a buffer of %d bytes", n, len(data)))
			}
			return n, prio, nil
		}
		if !q.blocking || KindOf(err) != WouldBlock {
			if KindOf(err) == ProtocolViolation {
				return 0, 0, NewError("receive", q.name, ProtocolViolation,
					errors.Wrapf(err, "the buffer of %d bytes is too small", len(data)))
			}
			return 0, 0, newError("receive", q.name, err)
		}
		if _, err = q.waiter.wait(Readable); err != nil {
			return 0, 0, newError("receive", q.name, err)
		}
	}
}

// Wait blocks until the queue is ready for the requested operation,
// or until Interrupt is called. There is no timeout.
// A NotReady result with a nil error means the wait returned without any readiness.
func (q *Queue) Wait(want Readiness) (Readiness, error) {
	if want != Readable && want != Writable {
		return NotReady, NewError("wait", q.name, InvalidArgument, errors.Errorf("cannot wait for %v", want))
	}
	r, err := q.waiter.wait(want)
	if err != nil {
		return NotReady, newError("wait", q.name, err)
	}
	return r, nil
}

// Interrupt wakes up current and future waits of the queue, which then fail with Interrupted.
// It is safe to call Interrupt from another goroutine.
func (q *Queue) Interrupt() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiter == nil {
		return nil
	}
	return newError("interrupt", q.name, q.waiter.interrupt())
}

// Close closes the queue.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fd < 0 {
		return NewError("close", q.name, InvalidArgument, errors.New("queue is already closed"))
	}
	var werr error
	if q.waiter != nil {
		werr = q.waiter.close()
		q.waiter = nil
	}
	err := sysClose(q.fd)
	q.fd = -1
	if err == nil {
		err = werr
	}
	return newError("close", q.name, err)
}

func checkName(name string) error {
	if !strings.HasPrefix(name, "/") {
		return errors.Errorf("queue name %q must start with '/'", name)
	}
	if len(name) == 1 || strings.Contains(name[1:], "/") {
		return errors.Errorf("queue name %q must contain exactly one leading '/' followed by a name", name)
	}
	return nil
}

// kernelName strips the leading slash, as mq syscalls expect names without it.
func kernelName(name string) string {
	return name[1:]
}

func checkMqPerm(perm os.FileMode) bool {
	return uint(perm)&^0666 == 0
}
