package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/presentation/outline"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <document-id>",
	Short: "Print the layer tree of a document",
	Long: `Loads a document (migrating it in memory when needed) and prints it.

Outputs:
- text (default): indented outline, coloured on a terminal.
- markdown: pages as headings, rendered with glamour on a terminal.
- mermaid: flowchart of pages and layers.
- json, yaml: the persisted form at the current version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		doc, err := p.sessions().Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading document '%s': %w", args[0], err)
		}
		return printDocument(cmd.OutOrStdout(), args[0], doc, output)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("output", "o", "text", "Output: text, markdown, mermaid, json or yaml")
}

func printDocument(w io.Writer, id string, doc domain.Document, output string) error {
	tty := isTerminal(w)

	switch output {
	case "text":
		style := outline.Style{}
		if tty {
			style = tui.OutlineStyle()
		}
		_, err := io.WriteString(w, outline.Text(doc, style))
		return err
	case "markdown", "md":
		md := outline.Markdown(doc, id)
		if tty {
			rendered, err := tui.NewRenderer()(md)
			if err == nil {
				md = rendered
			}
		}
		_, err := io.WriteString(w, md)
		return err
	case "mermaid":
		_, err := io.WriteString(w, outline.Mermaid(doc))
		return err
	case "json", "yaml":
		data, err := codec.MarshalRaw(codec.Encode(doc), codec.Format(output))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output %q. Supported: text, markdown, mermaid, json, yaml", output)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
