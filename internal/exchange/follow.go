// Copyright 2016 Aleksandr Demakin. All rights reserved.

package exchange

import (
	"context"

	"github.com/nxgtw/mqctl/internal/trace"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
)

// Follow receives and emits messages from the queue until an error occurs.
// It never returns nil: when ctx is done, it fails with Interrupted.
func Follow(ctx context.Context, name string, em Emitter, tr *trace.Tracer) error {
	// the loop waits for readiness itself, so the receive never blocks.
	s, err := OpenSession(name, false, tr)
	if err != nil {
		return err
	}
	defer s.Close()
	stop := interruptOnDone(ctx, s.Queue)
	defer stop()
	return FollowSource(s.Queue, s.Buf, em)
}

// FollowSource runs the follow loop over src, reusing buf for every message.
// Each iteration waits until src is readable, receives exactly one message
// and emits it. A wake without readiness, a failed receive and a failed
// emit all end the loop. Nothing is retried.
func FollowSource(src Source, buf []byte, em Emitter) error {
	for {
		r, err := src.Wait(mq.Readable)
		if err != nil {
			return errors.Wrap(err, "follow: wait failed")
		}
		if r != mq.Readable {
			return mq.NewError("wait", "", mq.ProtocolViolation,
				errors.Errorf("follow: woke up with readiness %q", r))
		}
		data, _, err := receive(src, buf)
		if err != nil {
			return errors.Wrap(err, "follow: receive after readiness failed")
		}
		if err = em.Emit(data); err != nil {
			return errors.Wrap(err, "follow: emit failed")
		}
	}
}
