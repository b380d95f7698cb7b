package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/arbor/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document-id...]",
	Short: "Check documents for consistency",
	Long: `Loads each document (all of them when no id is given) and reports duplicate
or malformed ids, dangling variable references, broken selection pointers and
props that do not match their component schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict-ids")

		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		components, err := p.cfg.ComponentRegistry()
		if err != nil {
			return err
		}
		opts := []validator.Option{validator.WithComponents(components)}
		if strict {
			opts = append(opts, validator.StrictIDs())
		}

		mgr := p.sessions()
		ids := args
		if len(ids) == 0 {
			if ids, err = mgr.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing documents: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range ids {
			doc, err := mgr.Load(cmd.Context(), id)
			if err == nil {
				err = validator.Validate(doc, opts...)
			}
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "%s: valid ✅\n", id)
		}
		if failed > 0 {
			return errors.New("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict-ids", false, "Require generated 7-character ids")
}
