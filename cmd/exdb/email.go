package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/exdb-api/internal/service"
)

var emailFlags struct {
	create bool
	sync   bool
	send   bool
}

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Register, sync and send the periodic email tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		dispatcher, err := container.EmailDispatcher()
		if err != nil {
			return err
		}
		return runEmail(cmd.Context(), dispatcher, cmd.OutOrStdout(), emailFlags.create, emailFlags.sync, emailFlags.send)
	},
}

func init() {
	emailCmd.Flags().BoolVar(&emailFlags.create, "create", false, "register one task row per known email task")
	emailCmd.Flags().BoolVar(&emailFlags.sync, "sync", false, "refresh the cached recipient addresses")
	emailCmd.Flags().BoolVar(&emailFlags.send, "send", false, "run every registered email task")
}

// runEmail executes the requested steps in sync, send, create order.
func runEmail(ctx context.Context, dispatcher service.EmailDispatcher, out io.Writer, create, sync, send bool) error {
	if sync {
		synced, err := dispatcher.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d address(es) synced\n", synced)
	}

	if send {
		result, err := dispatcher.Send(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d task(s) sent %d emails\n", result.Tasks, result.Emails)
	}

	if create {
		result, err := dispatcher.Create(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d new task(s) created out of %d total email tasks.\n", result.Created, result.Total)
	}

	return nil
}
