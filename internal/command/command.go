// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package command runs one validated command against a queue
// and turns the outcome into a process exit status.
package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nxgtw/mqctl/internal/exchange"
	"github.com/nxgtw/mqctl/internal/frame"
	"github.com/nxgtw/mqctl/internal/trace"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Command names.
const (
	Create = "create"
	Info   = "info"
	Unlink = "unlink"
	Send   = "send"
	Recv   = "recv"
)

// Descriptor is a fully validated command.
type Descriptor struct {
	Command   string
	Name      string
	Verbose   bool
	Timestamp bool
	Blocking  bool
	Follow    bool
	Priority  uint
	Delimiter frame.Delimiter

	// create only
	MaxMsg  int64
	MsgSize int64
	Mode    os.FileMode

	// send only
	Payload []byte
	// Input, if not nil, provides the payload instead of Payload.
	// It is read until EOF and may not exceed the queue's message size.
	Input io.Reader
}

// Dispatcher runs commands. Program data goes to Stdout,
// diagnostics and the verbose trace go to Stderr.
type Dispatcher struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command and returns the exit status.
// Failures are reported on Stderr.
func (d *Dispatcher) Run(ctx context.Context, desc Descriptor) int {
	tr := trace.New(d.Stderr, trace.Options{Verbose: desc.Verbose, Timestamp: desc.Timestamp})
	defer tr.Sync()
	if err := d.run(ctx, desc, tr); err != nil {
		tr.Error(desc.Command+" failed",
			zap.String("queue", desc.Name),
			zap.Stringer("kind", mq.KindOf(err)),
			zap.Error(err))
		return ExitFailure
	}
	return ExitOK
}

func (d *Dispatcher) run(ctx context.Context, desc Descriptor, tr *trace.Tracer) error {
	switch desc.Command {
	case Create:
		return d.create(desc, tr)
	case Info:
		return d.info(desc, tr)
	case Unlink:
		tr.Debug("deleting mq", zap.String("queue", desc.Name))
		return mq.Unlink(desc.Name)
	case Send:
		if desc.Input != nil {
			return exchange.SendFrom(ctx, desc.Name, desc.Input, desc.Priority, desc.Blocking, tr)
		}
		return exchange.Send(ctx, desc.Name, desc.Payload, desc.Priority, desc.Blocking, tr)
	case Recv:
		w := frame.NewWriter(d.Stdout, desc.Delimiter, tr)
		if desc.Follow {
			return exchange.Follow(ctx, desc.Name, w, tr)
		}
		return exchange.Receive(ctx, desc.Name, desc.Blocking, w, tr)
	default:
		return mq.NewError("dispatch", desc.Name, mq.InvalidArgument, errors.Errorf("unknown command %q", desc.Command))
	}
}

func (d *Dispatcher) create(desc Descriptor, tr *trace.Tracer) error {
	tr.Debug("creating mq",
		zap.String("queue", desc.Name),
		zap.String("flags", "O_CREAT|O_RDWR|O_EXCL"),
		zap.String("mode", fmt.Sprintf("%#o", uint32(desc.Mode))),
		zap.Int64("maxmsg", desc.MaxMsg),
		zap.Int64("msgsize", desc.MsgSize))
	q, err := mq.Create(desc.Name, desc.MaxMsg, desc.MsgSize, desc.Mode)
	if err != nil {
		return err
	}
	return q.Close()
}

func (d *Dispatcher) info(desc Descriptor, tr *trace.Tracer) error {
	tr.Debug("opening mq", zap.String("queue", desc.Name), zap.String("flags", mq.ReadOnly.String()))
	q, err := mq.Open(desc.Name, mq.ReadOnly, false)
	if err != nil {
		return err
	}
	defer q.Close()
	attrs, err := q.Attrs()
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s: maxmsg=%d, msgsize=%d, curmsgs=%d\n", desc.Name, attrs.MaxMsg, attrs.MsgSize, attrs.CurMsgs)
	if _, err = frame.WriteFull(d.Stdout, []byte(line)); err != nil {
		return mq.NewError("write", desc.Name, mq.WriteFailure, err)
	}
	return nil
}
