package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [document-id...]",
	Short: "Rewrite stored documents at the current format version",
	Long:  `Upgrades documents written by older versions in place. Without ids every document is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		mgr := p.sessions()
		ids := args
		if len(ids) == 0 {
			if ids, err = mgr.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing documents: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		hasError := false
		for _, id := range ids {
			migrated, err := mgr.Migrate(cmd.Context(), id)
			switch {
			case err != nil:
				fmt.Fprintf(out, "Error migrating '%s': %v\n", id, err)
				hasError = true
			case migrated:
				fmt.Fprintf(out, "Migrated '%s'\n", id)
			default:
				fmt.Fprintf(out, "'%s' is up to date\n", id)
			}
		}
		if hasError {
			return errors.New("migration failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
