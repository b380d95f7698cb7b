// Package outline renders a document's layer tree for terminals, Markdown
// viewers and Mermaid diagrams.
package outline

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Style decorates fragments of the text outline. Nil funcs leave text as is.
type Style struct {
	Page     func(string) string
	Layer    func(string) string
	Selected func(string) string
	Dim      func(string) string
}

func apply(fn func(string) string, s string) string {
	if fn == nil {
		return s
	}
	return fn(s)
}

// Text renders every page as an indented tree. The selected page is marked
// with "*" and the selected layer with ">".
func Text(doc domain.Document, style Style) string {
	var sb strings.Builder
	for _, page := range doc.Pages {
		marker := " "
		if page.ID == doc.SelectedPageID {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s %s\n", marker, apply(style.Page, page.DisplayName()), apply(style.Dim, "("+page.ID+")"))

		if !page.Children.IsContainer() {
			continue
		}
		tree.Walk(page.Children.Layers, func(l *domain.Layer, depth int) bool {
			indent := strings.Repeat("  ", depth+1)
			name := apply(style.Layer, l.DisplayName())
			if l.ID == doc.SelectedLayerID {
				indent = indent[:len(indent)-1] + ">"
				name = apply(style.Selected, l.DisplayName())
			}
			fmt.Fprintf(&sb, "%s %s %s%s\n", indent, name,
				apply(style.Dim, "<"+l.Type+"> "+l.ID), childrenSuffix(l.Children, doc))
			return true
		})
	}

	if len(doc.Variables) > 0 {
		sb.WriteString("\nVariables:\n")
		for _, v := range doc.Variables {
			fmt.Fprintf(&sb, "  %s %s = %v %s\n", v.Name, apply(style.Dim, string(v.Type)), v.DefaultValue, apply(style.Dim, v.ID))
		}
	}
	return sb.String()
}

// childrenSuffix describes non-layer children inline.
func childrenSuffix(c domain.Children, doc domain.Document) string {
	switch c.Kind {
	case domain.ChildrenText:
		return fmt.Sprintf(" %q", truncate(c.Text, 40))
	case domain.ChildrenVariable:
		if v, ok := doc.Variable(c.VariableID); ok {
			return " {" + v.Name + "}"
		}
		return " {?" + c.VariableID + "}"
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
