package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noah-isme/exdb-api/pkg/scheduler"
)

var cronFlags struct {
	emailSpec string
	usersSpec string
}

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Run the email and directory jobs on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		dispatcher, err := container.EmailDispatcher()
		if err != nil {
			return err
		}

		sched := scheduler.New(container.Config.Location(), container.Logger)
		if _, err := sched.Add(cronFlags.emailSpec, "email", func(ctx context.Context) error {
			return runEmail(ctx, dispatcher, io.Discard, false, false, true)
		}); err != nil {
			return err
		}

		if syncer := container.UserSync(); syncer != nil {
			if _, err := sched.Add(cronFlags.usersSpec, "sync-users", func(ctx context.Context) error {
				_, err := syncer.Sync(ctx)
				return err
			}); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sched.Start()
		container.Logger.Info().Int("jobs", sched.Len()).Msg("scheduler started")
		<-ctx.Done()
		sched.Shutdown()
		return nil
	},
}

func init() {
	cronCmd.Flags().StringVar(&cronFlags.emailSpec, "email", "* * * * *", "cron expression for email --send")
	cronCmd.Flags().StringVar(&cronFlags.usersSpec, "sync-users", "0 3 * * *", "cron expression for sync-users")
}
