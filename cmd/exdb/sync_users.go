package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncUsersCmd = &cobra.Command{
	Use:   "sync-users",
	Short: "Import users and roles from the LDAP directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		syncer := container.UserSync()
		if syncer == nil {
			return errors.New("no directory configured, set EXDB_LDAP_URL")
		}

		result, err := syncer.Sync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d user(s) populated, %d deactivated\n", result.Populated, result.Deactivated)
		return nil
	},
}
