package outline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Markdown renders the document as headings per page, nested lists per layer
// and a table of variables.
func Markdown(doc domain.Document, title string) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}

	for _, page := range doc.Pages {
		heading := page.DisplayName()
		if page.ID == doc.SelectedPageID {
			heading += " (selected)"
		}
		fmt.Fprintf(&sb, "## %s\n\n", heading)

		if !page.Children.IsContainer() || len(page.Children.Layers) == 0 {
			sb.WriteString("_Empty page._\n\n")
			continue
		}
		writeList(&sb, page.Children.Layers, 0, doc)
		sb.WriteString("\n")
	}

	if len(doc.Variables) > 0 {
		sb.WriteString("## Variables\n\n")
		sb.WriteString("| Name | Type | Default |\n|---|---|---|\n")
		for _, v := range doc.Variables {
			fmt.Fprintf(&sb, "| %s | %s | `%v` |\n", escapeCell(v.Name), v.Type, v.DefaultValue)
		}
	}
	return sb.String()
}

func writeList(sb *strings.Builder, layers []*domain.Layer, depth int, doc domain.Document) {
	for _, l := range layers {
		name := l.DisplayName()
		if l.ID == doc.SelectedLayerID {
			name = "**" + name + "**"
		}
		fmt.Fprintf(sb, "%s- %s `%s`%s%s\n", strings.Repeat("  ", depth), name, l.Type,
			propSummary(l.Props, doc), childrenSuffix(l.Children, doc))
		if l.Children.IsContainer() {
			writeList(sb, l.Children.Layers, depth+1, doc)
		}
	}
}

// propSummary lists bound props as name→variable.
func propSummary(props domain.Props, doc domain.Document) string {
	var bound []string
	for key, value := range props {
		ref, ok := value.(domain.VariableRef)
		if !ok {
			continue
		}
		name := "?" + ref.ID
		if v, ok := doc.Variable(ref.ID); ok {
			name = v.Name
		}
		bound = append(bound, key+"→"+name)
	}
	if len(bound) == 0 {
		return ""
	}
	sort.Strings(bound)
	return " (" + strings.Join(bound, ", ") + ")"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
