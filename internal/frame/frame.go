// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package frame writes received messages to the output stream,
// terminating each one with a delimiter.
package frame

import (
	"io"

	"github.com/nxgtw/mqctl/internal/trace"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Delimiter selects the byte written after each message.
type Delimiter int

const (
	// Newline terminates messages with '\n'.
	Newline Delimiter = iota
	// Nul terminates messages with a zero byte.
	Nul
	// None writes messages back to back.
	None
)

// ParseDelimiter parses the command line form of a delimiter: n, z or x.
func ParseDelimiter(s string) (Delimiter, error) {
	switch s {
	case "n":
		return Newline, nil
	case "z":
		return Nul, nil
	case "x":
		return None, nil
	default:
		return Newline, errors.Errorf("invalid delimiter %q, use n, z or x", s)
	}
}

func (d Delimiter) String() string {
	switch d {
	case Nul:
		return "z"
	case None:
		return "x"
	default:
		return "n"
	}
}

// Bytes returns the bytes written after each message.
func (d Delimiter) Bytes() []byte {
	switch d {
	case Newline:
		return []byte{'\n'}
	case Nul:
		return []byte{0}
	default:
		return nil
	}
}

// WriteFull writes all of p to w. It keeps writing after short writes,
// and fails only if w returns an error or stops making progress.
func WriteFull(w io.Writer, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := w.Write(p[written:])
		if n < 0 || n > len(p)-written {
			return written, errors.Errorf("invalid write count %d", n)
		}
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Writer emits messages with a fixed delimiter.
type Writer struct {
	out   io.Writer
	delim []byte
	tr    *trace.Tracer
}

// NewWriter returns a Writer. If tr is verbose, every message is traced
// with a hex dump on the tracer's side channel before it is written to out.
func NewWriter(out io.Writer, delim Delimiter, tr *trace.Tracer) *Writer {
	if tr == nil {
		tr = trace.Nop()
	}
	return &Writer{out: out, delim: delim.Bytes(), tr: tr}
}

// Emit writes the payload followed by the delimiter.
// Empty payloads are emitted too. Any error is a WriteFailure.
func (w *Writer) Emit(payload []byte) error {
	w.tr.Dump("received message", payload)
	if _, err := WriteFull(w.out, payload); err != nil {
		return mq.NewError("write", "", mq.WriteFailure, errors.Wrap(err, "failed to write message"))
	}
	if _, err := WriteFull(w.out, w.delim); err != nil {
		return mq.NewError("write", "", mq.WriteFailure, errors.Wrap(err, "failed to write delimiter"))
	}
	w.tr.Debug("message emitted", zap.Int("size", len(payload)))
	return nil
}
