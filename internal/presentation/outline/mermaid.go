package outline

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Mermaid produces a flowchart of the layer tree. Pages are drawn as
// circles, text layers as parallelograms and variable-bound layers as
// subroutines. The selection is highlighted.
func Mermaid(doc domain.Document) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var draw func(l, parent *domain.Layer, page bool)
	draw = func(l, parent *domain.Layer, page bool) {
		safeID := sanitizeMermaidID(l.ID)

		opener, closer := "[", "]"
		switch {
		case page:
			opener, closer = "((", "))"
		case l.Children.Kind == domain.ChildrenVariable:
			opener, closer = "[[", "]]"
		case l.Children.Kind == domain.ChildrenText:
			opener, closer = "[/", "/]"
		}
		label := strings.ReplaceAll(l.DisplayName(), "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if parent != nil {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(parent.ID), safeID)
		}
		if l.Children.IsContainer() {
			for _, child := range l.Children.Layers {
				draw(child, l, false)
			}
		}
	}
	for _, p := range doc.Pages {
		draw(p, nil, true)
	}

	if doc.SelectedPageID != "" || doc.SelectedLayerID != "" {
		sb.WriteString("\n    %% Selection\n")
		// Force black text for contrast on both light and dark themes.
		sb.WriteString("    classDef page fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		if doc.SelectedPageID != "" {
			fmt.Fprintf(&sb, "    class %s page;\n", sanitizeMermaidID(doc.SelectedPageID))
		}
		if doc.SelectedLayerID != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(doc.SelectedLayerID))
		}
	}
	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	// Ids starting with a digit confuse the parser.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
