// Package validator checks the structural invariants of a document: unique
// and well-formed ids, children shape, selection pointers, variable references
// and prop types.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/registry"
)

// Issue is a single violation.
type Issue struct {
	// ID is the offending layer or variable, empty for document-level issues.
	ID      string
	Message string
}

func (i Issue) String() string {
	if i.ID == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.ID, i.Message)
}

// Option configures a check.
type Option func(*checker)

// WithComponents validates literal props against the component schemas.
func WithComponents(c registry.ComponentLookup) Option {
	return func(ch *checker) {
		ch.components = c
	}
}

// StrictIDs requires every id to have the generated shape (see ids.Valid).
func StrictIDs() Option {
	return func(ch *checker) {
		ch.strictIDs = true
	}
}

type checker struct {
	doc        domain.Document
	components registry.ComponentLookup
	strictIDs  bool
	vars       map[string]domain.Variable
	seen       map[string]bool
	issues     []Issue
}

func (c *checker) add(id, format string, args ...any) {
	c.issues = append(c.issues, Issue{ID: id, Message: fmt.Sprintf(format, args...)})
}

// Check returns every violation found in doc, in document order.
func Check(doc domain.Document, opts ...Option) []Issue {
	c := &checker{
		doc:  doc,
		vars: make(map[string]domain.Variable, len(doc.Variables)),
		seen: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(doc.Pages) == 0 {
		c.add("", "document has no pages")
	}

	for _, v := range doc.Variables {
		c.checkID(v.ID, "variable")
		if !v.Type.Valid() {
			c.add(v.ID, "invalid variable type %q", v.Type)
		}
		if v.Type == domain.VariableFunction {
			if _, ok := v.DefaultValue.(string); !ok && v.DefaultValue != nil {
				c.add(v.ID, "function variable default must be a function id, got %T", v.DefaultValue)
			}
		}
		c.vars[v.ID] = v
	}

	for _, p := range doc.Pages {
		if p == nil {
			c.add("", "nil page")
			continue
		}
		if p.Children.Kind != domain.ChildrenLayers {
			c.add(p.ID, "page children must be a layer list, got %s", p.Children.Kind)
		}
		c.checkLayer(p)
	}

	c.checkSelection()
	return c.issues
}

// Validate runs Check and folds the issues into one error.
func Validate(doc domain.Document, opts ...Option) error {
	issues := Check(doc, opts...)
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(issues), strings.Join(lines, "\n- "))
}

func (c *checker) checkID(id, kind string) {
	switch {
	case id == "":
		c.add("", "%s with empty id", kind)
		return
	case c.seen[id]:
		c.add(id, "duplicate id")
	case c.strictIDs && !ids.Valid(id):
		c.add(id, "malformed %s id", kind)
	}
	c.seen[id] = true
}

func (c *checker) checkLayer(l *domain.Layer) {
	c.checkID(l.ID, "layer")
	if l.Type == "" {
		c.add(l.ID, "layer without type")
	}

	keys := make([]string, 0, len(l.Props))
	for k := range l.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.checkProp(l, k, l.Props[k])
	}

	switch l.Children.Kind {
	case domain.ChildrenLayers:
		if l.Children.Text != "" || l.Children.VariableID != "" {
			c.add(l.ID, "layer children mix layers with text or a variable")
		}
		for _, child := range l.Children.Layers {
			if child == nil {
				c.add(l.ID, "nil child layer")
				continue
			}
			c.checkLayer(child)
		}
	case domain.ChildrenText:
		if len(l.Children.Layers) > 0 {
			c.add(l.ID, "text children hold child layers")
		}
	case domain.ChildrenVariable:
		if _, ok := c.vars[l.Children.VariableID]; !ok {
			c.add(l.ID, "children reference missing variable %q", l.Children.VariableID)
		}
	case domain.ChildrenNone:
		if len(l.Children.Layers) > 0 || l.Children.Text != "" {
			c.add(l.ID, "children content without a kind")
		}
	}
}

func (c *checker) checkProp(l *domain.Layer, key string, v domain.PropValue) {
	switch t := v.(type) {
	case domain.VariableRef:
		if _, ok := c.vars[t.ID]; !ok {
			c.add(l.ID, "prop %s references missing variable %q", key, t.ID)
		}
	case domain.PropMap:
		for k, inner := range t {
			c.checkProp(l, key+"."+k, inner)
		}
	case domain.Literal:
		if c.components == nil || strings.Contains(key, ".") {
			return
		}
		comp, ok := c.components.Lookup(l.Type)
		if !ok {
			return
		}
		if typ, ok := comp.Props[key]; ok {
			if err := typ.Validate(t.Value); err != nil {
				c.add(l.ID, "prop %s: %v", key, err)
			}
		}
	}
}

func (c *checker) checkSelection() {
	if len(c.doc.Pages) == 0 {
		return
	}
	page, ok := c.doc.Page(c.doc.SelectedPageID)
	if !ok {
		c.add("", "selected page %q is not a page", c.doc.SelectedPageID)
		return
	}
	if c.doc.SelectedLayerID == "" {
		return
	}
	if c.doc.SelectedLayerID == page.ID || !contains(page, c.doc.SelectedLayerID) {
		c.add("", "selected layer %q is not on the selected page", c.doc.SelectedLayerID)
	}
}

// contains is tree.Contains for possibly malformed trees with nil layers.
func contains(l *domain.Layer, id string) bool {
	if l == nil {
		return false
	}
	if l.ID == id {
		return true
	}
	for _, child := range l.Children.Layers {
		if contains(child, id) {
			return true
		}
	}
	return false
}
