package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/exdb-api/internal/bootstrap"
	"github.com/noah-isme/exdb-api/internal/config"
)

var container *bootstrap.Container

var rootCmd = &cobra.Command{
	Use:           "exdb",
	Short:         "exdb runs the experience database maintenance tasks",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := bootstrap.NewLogger(cfg, os.Stderr)
		container, err = bootstrap.New(cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			container.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(emailCmd, syncUsersCmd, cronCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
