// Copyright 2016 Aleksandr Demakin. All rights reserved.

package exchange

import (
	"context"
	"io"

	"github.com/nxgtw/mqctl/internal/trace"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Send opens the queue for writing and sends one message.
// If blocking is false and the queue is full, it fails with WouldBlock.
// A blocking send fails with Interrupted, when ctx is done.
func Send(ctx context.Context, name string, payload []byte, prio uint, blocking bool, tr *trace.Tracer) error {
	q, err := openQueue(name, mq.WriteOnly, blocking, tr)
	if err != nil {
		return err
	}
	defer q.Close()
	return send(ctx, q, payload, prio, tr)
}

// SendFrom is Send with the payload read from r until EOF.
// The payload may not exceed the queue's message size: a longer input
// fails with InvalidArgument and nothing is sent.
func SendFrom(ctx context.Context, name string, r io.Reader, prio uint, blocking bool, tr *trace.Tracer) error {
	q, err := openQueue(name, mq.WriteOnly, blocking, tr)
	if err != nil {
		return err
	}
	defer q.Close()
	attrs, err := q.Attrs()
	if err != nil {
		return err
	}
	payload, err := readPayload(ctx, r, attrs.MsgSize)
	if err != nil {
		return newReadError(name, attrs.MsgSize, err)
	}
	return send(ctx, q, payload, prio, tr)
}

func send(ctx context.Context, q *mq.Queue, payload []byte, prio uint, tr *trace.Tracer) error {
	stop := interruptOnDone(ctx, q)
	defer stop()
	tr.Dump("sending message", payload, zap.String("queue", q.Name()), zap.Uint("priority", prio))
	return q.Send(payload, prio)
}

var errPayloadTooLong = errors.New("input is longer than the message size")

// readPayload reads at most limit bytes from r. Reading gives up, when ctx is done,
// leaving the reading goroutine blocked on r.
func readPayload(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, limit+1))
		done <- result{data: data, err: err}
	}()
	select {
	case res := <-done:
		if res.err == nil && int64(len(res.data)) > limit {
			return nil, errPayloadTooLong
		}
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newReadError(name string, limit int64, err error) error {
	switch {
	case errors.Is(err, errPayloadTooLong):
		return mq.NewError("read", name, mq.InvalidArgument, errors.Wrapf(err, "limit is %d bytes", limit))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return mq.NewError("read", name, mq.Interrupted, err)
	default:
		return mq.NewError("read", name, mq.Other, errors.Wrap(err, "failed to read the message"))
	}
}
