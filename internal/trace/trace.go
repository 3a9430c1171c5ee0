// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package trace writes diagnostics and the verbose trace to the side channel
// (normally standard error). Program data never goes through it.
package trace

import (
	"encoding/hex"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a Tracer.
type Options struct {
	// Verbose enables debug-level trace entries and hex dumps.
	Verbose bool
	// Timestamp prefixes every entry with the current time.
	// Verbose entries are always time-stamped.
	Timestamp bool
}

// Tracer is a zap logger bound to the side channel.
type Tracer struct {
	log     *zap.Logger
	out     zapcore.WriteSyncer
	verbose bool
}

// New returns a Tracer writing to w.
func New(w io.Writer, opts Options) *Tracer {
	cfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if opts.Timestamp || opts.Verbose {
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	}
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	out := zapcore.Lock(zapcore.AddSync(w))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), out, level)
	return &Tracer{
		log:     zap.New(core),
		out:     out,
		verbose: opts.Verbose,
	}
}

// Nop returns a Tracer, which discards everything.
func Nop() *Tracer {
	return &Tracer{log: zap.NewNop(), out: zapcore.AddSync(io.Discard)}
}

// Verbose returns true, if debug entries are written.
func (t *Tracer) Verbose() bool {
	return t.verbose
}

// Debug writes a verbose trace entry.
func (t *Tracer) Debug(msg string, fields ...zap.Field) {
	t.log.Debug(msg, fields...)
}

// Error writes a diagnostic entry.
func (t *Tracer) Error(msg string, fields ...zap.Field) {
	t.log.Error(msg, fields...)
}

// Dump writes a verbose trace entry followed by the hex dump of data.
func (t *Tracer) Dump(msg string, data []byte, fields ...zap.Field) {
	if !t.verbose {
		return
	}
	t.log.Debug(msg, append(fields, zap.Int("size", len(data)))...)
	if len(data) > 0 {
		t.out.Write([]byte(hex.Dump(data)))
	}
}

// Sync flushes buffered entries.
func (t *Tracer) Sync() error {
	return t.log.Sync()
}
