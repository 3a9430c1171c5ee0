// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package exchange moves messages between queues and the output stream:
// one-shot send and receive, and the follow loop, which receives and emits
// messages until a failure or an interrupt.
package exchange
