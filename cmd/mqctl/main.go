// Copyright 2016 Aleksandr Demakin. All rights reserved.

// mqctl creates, inspects, deletes and exchanges data through POSIX message queues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nxgtw/mqctl/internal/cli"
	"github.com/nxgtw/mqctl/internal/command"
	"github.com/nxgtw/mqctl/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mqctl: %v\n", err)
		return command.ExitFailure
	}
	// a signal interrupts pending waits. The command then fails,
	// closing its queue before the process exits.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := &command.Dispatcher{Stdout: os.Stdout, Stderr: os.Stderr}
	root := cli.NewRoot(cfg, d.Run)
	return cli.ExitStatus(root.ExecuteContext(ctx), os.Stderr)
}
