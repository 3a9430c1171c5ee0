// Copyright 2016 Aleksandr Demakin. All rights reserved.

package exchange

import (
	"context"

	"github.com/nxgtw/mqctl/internal/trace"
)

// Receive receives exactly one message from the queue and emits it.
// If blocking is false and the queue is empty, it fails with WouldBlock.
func Receive(ctx context.Context, name string, blocking bool, em Emitter, tr *trace.Tracer) error {
	s, err := OpenSession(name, blocking, tr)
	if err != nil {
		return err
	}
	defer s.Close()
	stop := interruptOnDone(ctx, s.Queue)
	defer stop()
	data, _, err := receive(s.Queue, s.Buf)
	if err != nil {
		return err
	}
	return em.Emit(data)
}
