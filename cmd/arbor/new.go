package main

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <document-id>",
	Short: "Create a document with an empty first page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		page, _ := cmd.Flags().GetString("page")

		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		editor, err := p.editor()
		if err != nil {
			return err
		}
		created, err := editor.Open(cmd.Context(), id)
		if err != nil {
			return err
		}
		defer editor.Close(cmd.Context())
		if !created {
			return fmt.Errorf("document '%s' already exists", id)
		}

		if page != "" {
			err := editor.Update(func(s *store.Store) error {
				first := s.Document().SelectedPageID
				return s.UpdateLayer(first, nil, &domain.LayerPatch{Name: &page})
			})
			if err != nil {
				return err
			}
			if err := editor.Save(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created document '%s'\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().String("page", "", "Name of the first page")
}
