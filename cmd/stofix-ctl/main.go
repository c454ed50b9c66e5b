package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stofix/internal/ipc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	socket  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "stofix-ctl",
		Short:         "Drive a running stofix",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&flags.socket, "socket", "s", ipc.DefaultSocketPath(), "Control socket path")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 5*time.Second, "Reply timeout")

	simple := []struct {
		use, short string
	}{
		{"listen", "Start listening for a voice command"},
		{"stop", "Stop listening"},
		{"email", "Dictate and send an email"},
		{"hello", "Say hello"},
		{"notepad", "Open the text editor"},
		{"linkedin", "Open LinkedIn"},
		{"list", "List custom apps"},
		{"status", "Show the assistant state and status line"},
	}
	for _, s := range simple {
		cmd.AddCommand(&cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return send(c, flags, s.use, nil)
			},
		})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <path>",
			Short: "Register a custom app under a voice command name",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				return send(c, flags, "add", args)
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a custom app",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return send(c, flags, "remove", args)
			},
		},
		&cobra.Command{
			Use:   "launch <name>",
			Short: "Open a custom app",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return send(c, flags, "launch", args)
			},
		},
		&cobra.Command{
			Use:   "volume [0..1]",
			Short: "Show or set the speech volume",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return send(c, flags, "volume", args)
			},
		},
	)
	return cmd
}

func send(c *cobra.Command, flags rootFlags, cmd string, args []string) error {
	ctx, cancel := context.WithTimeout(c.Context(), flags.timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, flags.socket, ipc.ControlMessage{Cmd: cmd, Args: args})
	if err != nil {
		return fmt.Errorf("stofix not reachable or refused: %w", err)
	}
	printReply(c.OutOrStdout(), reply)
	return nil
}

func printReply(w io.Writer, reply ipc.ControlReply) {
	if reply.Message != "" {
		fmt.Fprintln(w, reply.Message)
	}
	if len(reply.Apps) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, app := range reply.Apps {
		fmt.Fprintf(tw, "%s\t%s\n", app.Name, app.Path)
	}
	tw.Flush()
}
