package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage stored documents",
	Long:  `List and remove documents in the configured store.`,
}

var docLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		ids, err := p.sessions().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing documents: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No documents found.")
			return nil
		}
		fmt.Fprintln(out, "Documents:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var docRmCmd = &cobra.Command{
	Use:   "rm <document-id>...",
	Short: "Remove one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		mgr := p.sessions()
		out := cmd.OutOrStdout()
		hasError := false
		for _, id := range args {
			if err := mgr.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Fprintf(out, "Removed document '%s'\n", id)
			}
		}
		if hasError {
			return errors.New("some documents could not be removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.AddCommand(docLsCmd)
	docCmd.AddCommand(docRmCmd)
}
