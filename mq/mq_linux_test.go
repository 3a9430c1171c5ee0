// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package mq_test

import (
	"sync"
	"testing"
	"time"

	testutil "github.com/nxgtw/mqctl/internal/test"
	"github.com/nxgtw/mqctl/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLinuxMq(t *testing.T) {
	name, q := testutil.CreateQueue(t, 5, 121)
	a := assert.New(t)
	a.Equal(name, q.Name())
	a.Equal(mq.ReadWrite, q.Access())
	attrs, err := q.Attrs()
	a.NoError(err)
	a.Equal(mq.Attrs{MaxMsg: 5, MsgSize: 121, CurMsgs: 0}, attrs)
}

func TestCreateLinuxMqExcl(t *testing.T) {
	name, q := testutil.CreateQueue(t, 4, 64)
	a := assert.New(t)
	a.NoError(q.Send([]byte("keep"), 0))
	_, err := mq.Create(name, 2, 32, 0600)
	a.True(mq.IsKind(err, mq.AlreadyExists), "%v", err)
	attrs, err := q.Attrs()
	a.NoError(err)
	a.Equal(mq.Attrs{MaxMsg: 4, MsgSize: 64, CurMsgs: 1}, attrs)
}

func TestCreateLinuxMqInvalidArgs(t *testing.T) {
	testutil.RequireMQ(t)
	name := testutil.QueueName(t)
	a := assert.New(t)
	_, err := mq.Create(name, 1, 16, 0755)
	a.True(mq.IsKind(err, mq.InvalidArgument))
	_, err = mq.Create("noslash", 1, 16, 0600)
	a.True(mq.IsKind(err, mq.InvalidArgument))
	_, err = mq.Create(name, 0, 16, 0600)
	a.True(mq.IsKind(err, mq.InvalidArgument))
	_, err = mq.Open(name, mq.ReadOnly, false)
	a.True(mq.IsKind(err, mq.NotFound))
}

func TestOpenLinuxMqNotFound(t *testing.T) {
	testutil.RequireMQ(t)
	_, err := mq.Open(testutil.QueueName(t), mq.WriteOnly, true)
	assert.True(t, mq.IsKind(err, mq.NotFound), "%v", err)
}

func TestUnlinkLinuxMq(t *testing.T) {
	name, q := testutil.CreateQueue(t, 1, 16)
	a := assert.New(t)
	a.NoError(mq.Unlink(name))
	// the handle stays valid after unlink.
	a.NoError(q.Send([]byte("x"), 0))
	err := mq.Unlink(name)
	a.True(mq.IsKind(err, mq.NotFound), "%v", err)
}

func TestLinuxMqCloseTwice(t *testing.T) {
	testutil.RequireMQ(t)
	name := testutil.QueueName(t)
	q, err := mq.Create(name, 1, 16, 0600)
	require.NoError(t, err)
	assert.NoError(t, q.Close())
	assert.Error(t, q.Close())
}

func TestLinuxMqSendReceive(t *testing.T) {
	name, _ := testutil.CreateQueue(t, 8, 128)
	a := assert.New(t)
	w, err := mq.Open(name, mq.WriteOnly, false)
	require.NoError(t, err)
	defer w.Close()
	r, err := mq.Open(name, mq.ReadOnly, false)
	require.NoError(t, err)
	defer r.Close()

	payloads := [][]byte{
		[]byte("hello"),
		{},
		{0, 1, 0, 2, 0},
		testutil.Repeat("abc", 128),
	}
	for _, p := range payloads {
		a.NoError(w.Send(p, 0))
	}
	buf := make([]byte, 128)
	for _, p := range payloads {
		n, prio, err := r.Receive(buf)
		if !a.NoError(err) {
			return
		}
		a.Equal(uint(0), prio)
		a.Equal(p, buf[:n])
	}
}

func TestLinuxMqPriorityOrder(t *testing.T) {
	_, q := testutil.CreateQueue(t, 4, 16)
	a := assert.New(t)
	a.NoError(q.Send([]byte("low"), 1))
	a.NoError(q.Send([]byte("high"), 10))
	a.NoError(q.Send([]byte("mid"), 5))
	buf := make([]byte, 16)
	for _, expected := range []struct {
		data string
		prio uint
	}{{"high", 10}, {"mid", 5}, {"low", 1}} {
		n, prio, err := q.Receive(buf)
		a.NoError(err)
		a.Equal(expected.data, string(buf[:n]))
		a.Equal(expected.prio, prio)
	}
	a.True(mq.IsKind(q.Send([]byte("x"), mq.MaxPriority), mq.InvalidArgument))
}

func TestLinuxMqSendNonBlock(t *testing.T) {
	name, _ := testutil.CreateQueue(t, 1, 16)
	a := assert.New(t)
	w, err := mq.Open(name, mq.WriteOnly, false)
	require.NoError(t, err)
	defer w.Close()
	a.NoError(w.Send([]byte("first"), 0))
	err = w.Send([]byte("second"), 0)
	a.True(mq.IsKind(err, mq.WouldBlock), "%v", err)

	r, err := mq.Open(name, mq.ReadOnly, false)
	require.NoError(t, err)
	defer r.Close()
	buf := make([]byte, 16)
	n, _, err := r.Receive(buf)
	a.NoError(err)
	a.Equal("first", string(buf[:n]))
	_, _, err = r.Receive(buf)
	a.True(mq.IsKind(err, mq.WouldBlock), "%v", err)
}

func TestLinuxMqReceiveSmallBuffer(t *testing.T) {
	_, q := testutil.CreateQueue(t, 1, 64)
	a := assert.New(t)
	a.NoError(q.Send([]byte("x"), 0))
	_, _, err := q.Receive(make([]byte, 8))
	a.True(mq.IsKind(err, mq.ProtocolViolation), "%v", err)
}

func TestLinuxMqSendTooLong(t *testing.T) {
	_, q := testutil.CreateQueue(t, 1, 8)
	err := q.Send(testutil.Repeat("a", 9), 0)
	assert.True(t, mq.IsKind(err, mq.InvalidArgument), "%v", err)
}

func TestLinuxMqAccessMismatch(t *testing.T) {
	name, _ := testutil.CreateQueue(t, 1, 16)
	a := assert.New(t)
	r, err := mq.Open(name, mq.ReadOnly, false)
	require.NoError(t, err)
	defer r.Close()
	// writing into a read-only descriptor is rejected by the kernel with EBADF.
	a.Error(r.Send([]byte("x"), 0))
}

func TestLinuxMqBlockingReceive(t *testing.T) {
	name, _ := testutil.CreateQueue(t, 2, 16)
	r, err := mq.Open(name, mq.ReadOnly, true)
	require.NoError(t, err)
	defer r.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		w, err := mq.Open(name, mq.WriteOnly, true)
		if !assert.NoError(t, err) {
			return
		}
		defer w.Close()
		assert.NoError(t, w.Send([]byte("late"), 3))
	}()
	buf := make([]byte, 16)
	n, prio, err := r.Receive(buf)
	wg.Wait()
	assert.NoError(t, err)
	assert.Equal(t, "late", string(buf[:n]))
	assert.Equal(t, uint(3), prio)
}

func TestLinuxMqBlockingSend(t *testing.T) {
	name, q := testutil.CreateQueue(t, 1, 16)
	require.NoError(t, q.Send([]byte("full"), 0))
	w, err := mq.Open(name, mq.WriteOnly, true)
	require.NoError(t, err)
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		done <- w.Send([]byte("next"), 0)
	}()
	select {
	case err := <-done:
		t.Fatalf("send returned on a full queue: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	buf := make([]byte, 16)
	_, _, err = q.Receive(buf)
	require.NoError(t, err)
	assert.NoError(t, <-done)
}

func TestLinuxMqInterruptBlockingReceive(t *testing.T) {
	name, _ := testutil.CreateQueue(t, 1, 16)
	r, err := mq.Open(name, mq.ReadOnly, true)
	require.NoError(t, err)
	defer r.Close()

	done := make(chan error, 1)
	go func() {
		_, _, err := r.Receive(make([]byte, 16))
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, r.Interrupt())
	err = <-done
	assert.True(t, mq.IsKind(err, mq.Interrupted), "%v", err)

	// interrupts are sticky.
	_, err = r.Wait(mq.Readable)
	assert.True(t, mq.IsKind(err, mq.Interrupted), "%v", err)
}

func TestLinuxMqWait(t *testing.T) {
	_, q := testutil.CreateQueue(t, 1, 16)
	a := assert.New(t)
	r, err := q.Wait(mq.Writable)
	a.NoError(err)
	a.Equal(mq.Writable, r)
	a.NoError(q.Send([]byte("x"), 0))
	r, err = q.Wait(mq.Readable)
	a.NoError(err)
	a.Equal(mq.Readable, r)
	_, err = q.Wait(mq.NotReady)
	a.True(mq.IsKind(err, mq.InvalidArgument))
}
