// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mq gives access to named POSIX message queues.
// It provides exclusive creation, opening with a given access mode,
// attribute queries, unlinking, priority send/receive and a readiness wait
// on a single queue descriptor.
// Queue descriptors are always non-blocking at the kernel level. Blocking
// operations wait for readiness instead, so they can be interrupted with
// (*Queue).Interrupt from another goroutine.
// Only linux is supported. On other platforms every operation fails with ENOSYS.
package mq
