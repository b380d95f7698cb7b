package tui

import (
	"os"

	"github.com/aretw0/arbor/internal/presentation/outline"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// OutlineStyle colors the text outline for the current terminal profile.
func OutlineStyle() outline.Style {
	p := termenv.ColorProfile()
	color := func(hex string, bold bool) func(string) string {
		return func(s string) string {
			out := termenv.String(s).Foreground(p.Color(hex))
			if bold {
				out = out.Bold()
			}
			return out.String()
		}
	}
	return outline.Style{
		Page:     color("#34d399", true),
		Layer:    color("#e5e7eb", false),
		Selected: color("#fbbf24", true),
		Dim:      color("#6b7280", false),
	}
}
