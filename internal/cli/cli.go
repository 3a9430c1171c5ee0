// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package cli builds the mqctl command tree. It validates arguments
// and hands complete command descriptors to a Runner.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nxgtw/mqctl/internal/command"
	"github.com/nxgtw/mqctl/internal/config"
	"github.com/nxgtw/mqctl/internal/frame"
	"github.com/nxgtw/mqctl/mq"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Runner executes a command and returns the exit status.
type Runner func(ctx context.Context, desc command.Descriptor) int

// ErrFailed is returned by Execute, when the command ran and failed.
// The failure has already been reported by the runner.
var ErrFailed = errors.New("command failed")

const examples = `  mqctl create /myqueue
  mqctl send /myqueue "hello" -n
  date | mqctl send /myqueue
  mqctl info /myqueue
  mqctl recv /myqueue
  mqctl recv /myqueue --follow --delimiter z
  mqctl unlink /myqueue`

// NewRoot constructs the root command. cfg provides flag defaults.
func NewRoot(cfg config.Config, run Runner) *cobra.Command {
	root := &cobra.Command{
		Use:           "mqctl",
		Short:         "Use POSIX message queues from the shell",
		Example:       examples,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Produce verbose output on stderr")
	root.PersistentFlags().BoolP("timestamp", "t", false, "Prefix diagnostic output with timestamps")

	root.AddCommand(
		newCreateCommand(cfg, run),
		newInfoCommand(run),
		newUnlinkCommand(run),
		newSendCommand(cfg, run),
		newRecvCommand(cfg, run),
	)
	return root
}

// ExitStatus reports err from Execute on w and returns the process exit status.
func ExitStatus(err error, w io.Writer) int {
	if err == nil {
		return command.ExitOK
	}
	if !errors.Is(err, ErrFailed) {
		fmt.Fprintf(w, "mqctl: %v\n", err)
	}
	return command.ExitFailure
}

func queueNameArgs(n int) cobra.PositionalArgs {
	return queueNameRangeArgs(n, n)
}

func queueNameRangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return err
		}
		if !strings.HasPrefix(args[0], "/") {
			return errors.Errorf("queue name %q must start with '/'", args[0])
		}
		return nil
	}
}

func baseDescriptor(cmd *cobra.Command, name string) command.Descriptor {
	verbose, _ := cmd.Flags().GetBool("verbose")
	timestamp, _ := cmd.Flags().GetBool("timestamp")
	return command.Descriptor{
		Command:   cmd.Name(),
		Name:      name,
		Verbose:   verbose,
		Timestamp: timestamp,
	}
}

func execute(cmd *cobra.Command, run Runner, desc command.Descriptor) error {
	if run(cmd.Context(), desc) != command.ExitOK {
		return ErrFailed
	}
	return nil
}

func newCreateCommand(cfg config.Config, run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   command.Create + " QNAME",
		Short: "Create a POSIX message queue",
		Args:  queueNameArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := baseDescriptor(cmd, args[0])
			desc.MaxMsg, _ = cmd.Flags().GetInt64("maxmsg")
			desc.MsgSize, _ = cmd.Flags().GetInt64("msgsize")
			if desc.MaxMsg <= 0 || desc.MsgSize <= 0 {
				return errors.New("--maxmsg and --msgsize must be positive")
			}
			modeStr, _ := cmd.Flags().GetString("mode")
			mode, err := config.ParseMode(modeStr)
			if err != nil {
				return err
			}
			desc.Mode = mode
			return execute(cmd, run, desc)
		},
	}
	cmd.Flags().Int64P("msgsize", "s", cfg.MsgSize, "Message size in bytes")
	cmd.Flags().Int64P("maxmsg", "m", cfg.MaxMsg, "Maximum number of messages in queue")
	cmd.Flags().String("mode", cfg.Mode, "Queue permissions (octal)")
	return cmd
}

func newInfoCommand(run Runner) *cobra.Command {
	return &cobra.Command{
		Use:   command.Info + " QNAME",
		Short: "Print information about an existing message queue",
		Args:  queueNameArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, run, baseDescriptor(cmd, args[0]))
		},
	}
}

func newUnlinkCommand(run Runner) *cobra.Command {
	return &cobra.Command{
		Use:   command.Unlink + " QNAME",
		Short: "Delete a message queue",
		Args:  queueNameArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, run, baseDescriptor(cmd, args[0]))
		},
	}
}

func newSendCommand(cfg config.Config, run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   command.Send + " QNAME [MESSAGE]",
		Short: "Send a message to a message queue",
		Long: "Send a message to a message queue. Without MESSAGE, the message is read from\n" +
			"standard input. It may not be longer than the message size of the queue.",
		Args: queueNameRangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := baseDescriptor(cmd, args[0])
			if len(args) == 2 {
				desc.Payload = []byte(args[1])
			} else {
				desc.Input = cmd.InOrStdin()
			}
			desc.Priority, _ = cmd.Flags().GetUint("priority")
			if desc.Priority >= mq.MaxPriority {
				return errors.Errorf("--priority must be less than %d", mq.MaxPriority)
			}
			nonBlocking, _ := cmd.Flags().GetBool("non-blocking")
			desc.Blocking = !nonBlocking
			return execute(cmd, run, desc)
		},
	}
	cmd.Flags().UintP("priority", "p", cfg.Priority, "Message priority")
	cmd.Flags().BoolP("non-blocking", "n", false, "Fail instead of waiting if the queue is full")
	return cmd
}

func newRecvCommand(cfg config.Config, run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   command.Recv + " QNAME",
		Short: "Receive and print a message from a message queue",
		Args:  queueNameArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := baseDescriptor(cmd, args[0])
			delim, _ := cmd.Flags().GetString("delimiter")
			var err error
			if desc.Delimiter, err = frame.ParseDelimiter(delim); err != nil {
				return err
			}
			desc.Follow, _ = cmd.Flags().GetBool("follow")
			nonBlocking, _ := cmd.Flags().GetBool("non-blocking")
			desc.Blocking = !nonBlocking
			return execute(cmd, run, desc)
		},
	}
	cmd.Flags().BoolP("follow", "f", false, "Keep receiving and printing messages")
	cmd.Flags().BoolP("non-blocking", "n", false, "Fail instead of waiting if the queue is empty")
	cmd.Flags().StringP("delimiter", "d", cfg.Delimiter, "Message delimiter: n (newline), z (null byte), x (none)")
	return cmd
}
