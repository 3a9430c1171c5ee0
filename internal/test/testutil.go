// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package testutil contains helpers for tests working with real message queues.
package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/nxgtw/mqctl/internal/common"
	"github.com/nxgtw/mqctl/mq"
)

var (
	probeOnce sync.Once
	probeErr  error
)

func probe() {
	name := fmt.Sprintf("/mqctl-probe-%d", os.Getpid())
	mq.Unlink(name)
	q, err := mq.Create(name, 1, 16, 0600)
	if err != nil {
		probeErr = err
		return
	}
	q.Close()
	mq.Unlink(name)
}

// RequireMQ skips the test, if the kernel does not implement message queues.
// Any other failure to create a queue fails the test.
func RequireMQ(t testing.TB) {
	t.Helper()
	probeOnce.Do(probe)
	if probeErr == nil {
		return
	}
	if unsupported(probeErr) {
		t.Skipf("posix message queues are not available: %v", probeErr)
	}
	t.Fatalf("failed to create a probe queue: %v", probeErr)
}

// unsupported returns true, if err means that the kernel has no message queues.
func unsupported(err error) bool {
	return common.SyscallErrHasCode(err, syscall.ENOSYS)
}

// QueueName returns a queue name unique for the test and the process.
// The queue is unlinked when the test finishes.
func QueueName(t testing.TB) string {
	t.Helper()
	name := fmt.Sprintf("/mqctl-%d-%s", os.Getpid(), strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	if len(name) > 255 {
		name = name[:255]
	}
	mq.Unlink(name)
	t.Cleanup(func() {
		mq.Unlink(name)
	})
	return name
}

// CreateQueue creates a queue for the test, failing it on error.
// The returned handle is closed when the test finishes.
func CreateQueue(t testing.TB, maxMsg, msgSize int64) (string, *mq.Queue) {
	t.Helper()
	RequireMQ(t)
	name := QueueName(t)
	q, err := mq.Create(name, maxMsg, msgSize, 0600)
	if err != nil {
		t.Fatalf("failed to create queue %s: %v", name, err)
	}
	t.Cleanup(func() {
		q.Close()
	})
	return name, q
}

// Repeat returns a byte slice of the given length filled with a repeating pattern.
func Repeat(pattern string, size int) []byte {
	result := make([]byte, size)
	for i := range result {
		result[i] = pattern[i%len(pattern)]
	}
	return result
}
