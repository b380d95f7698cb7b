package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <document-id>",
	Short: "Reprint a document whenever its stored copy changes",
	Long: `Prints the document, then watches the store and prints it again after every
external change (hot reload). Requires a backend that supports watching (file).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		output, _ := cmd.Flags().GetString("output")

		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		if p.backend.Watcher == nil {
			return fmt.Errorf("the %s backend does not support watching", p.cfg.Store.Backend)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := p.backend.Watcher.Watch(ctx)
		if err != nil {
			return err
		}

		mgr := p.sessions()
		out := cmd.OutOrStdout()
		show := func() error {
			doc, err := mgr.Load(ctx, id)
			if err != nil {
				return err
			}
			return printDocument(out, id, doc, output)
		}
		if err := show(); err != nil {
			return fmt.Errorf("error loading document '%s': %w", id, err)
		}

		for changed := range events {
			if changed != id {
				continue
			}
			fmt.Fprintf(out, "\n--- %s changed ---\n", id)
			if err := show(); err != nil {
				// The file may be mid-write or removed; keep watching.
				p.logger.Warn("reload failed", "document_id", id, "err", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("output", "o", "text", "Output: text, markdown, mermaid, json or yaml")
}
