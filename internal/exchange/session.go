// Copyright 2016 Aleksandr Demakin. All rights reserved.

package exchange

import (
	"context"

	"github.com/nxgtw/mqctl/internal/trace"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Source is a queue, which messages can be received from.
type Source interface {
	mq.Waiter
	Receive(data []byte) (int, uint, error)
}

// Emitter writes received messages out.
type Emitter interface {
	Emit(payload []byte) error
}

// Session is a queue opened for reading together with a buffer,
// which fits any message of that queue.
type Session struct {
	Queue *mq.Queue
	Attrs mq.Attrs
	Buf   []byte
}

// OpenSession opens the queue for reading and sizes the buffer
// from the queue's message size. The caller must close the session.
func OpenSession(name string, blocking bool, tr *trace.Tracer) (*Session, error) {
	q, err := openQueue(name, mq.ReadOnly, blocking, tr)
	if err != nil {
		return nil, err
	}
	attrs, err := q.Attrs()
	if err != nil {
		q.Close()
		return nil, err
	}
	if attrs.MsgSize <= 0 {
		q.Close()
		return nil, mq.NewError("getattr", name, mq.ProtocolViolation,
			errors.Errorf("invalid message size %d", attrs.MsgSize))
	}
	tr.Debug("queue attributes",
		zap.String("queue", name),
		zap.Int64("maxmsg", attrs.MaxMsg),
		zap.Int64("msgsize", attrs.MsgSize),
		zap.Int64("curmsgs", attrs.CurMsgs))
	return &Session{
		Queue: q,
		Attrs: attrs,
		Buf:   make([]byte, attrs.MsgSize),
	}, nil
}

// Close closes the queue of the session.
func (s *Session) Close() error {
	return s.Queue.Close()
}

// interruptOnDone interrupts waits of q, when ctx is done.
// The returned function must be called before q is closed.
func interruptOnDone(ctx context.Context, q *mq.Queue) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		q.Interrupt()
	})
}

func openQueue(name string, access mq.Access, blocking bool, tr *trace.Tracer) (*mq.Queue, error) {
	tr.Debug("opening mq", zap.String("queue", name), zap.String("flags", openFlags(access, blocking)))
	return mq.Open(name, access, blocking)
}

func openFlags(access mq.Access, blocking bool) string {
	if blocking {
		return access.String()
	}
	return access.String() + "|O_NONBLOCK"
}

// receive performs one receive into buf and returns the received part of it.
func receive(src Source, buf []byte) ([]byte, uint, error) {
	n, prio, err := src.Receive(buf)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 || n > len(buf) {
		return nil, 0, mq.NewError("receive", "", mq.ProtocolViolation,
			errors.Errorf("received %d bytes into a buffer of %d bytes", n, len(buf)))
	}
	return buf[:n], prio, nil
}
