package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/exdb-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(container.DB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database migrated")
		return nil
	},
}
