package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// VariableBinding binds a prop of a freshly created component to a variable.
type VariableBinding struct {
	PropName   string
	VariableID string
}

// Component describes a layer type.
type Component struct {
	Type string

	// Props declares the accepted props and their defaults.
	Props schema.Schema

	// DefaultChildren is copied into new layers of this type.
	// Layer sequences are re-identified on every copy.
	DefaultChildren domain.Children

	// DefaultVariableBindings are applied when the variable exists in the document.
	DefaultVariableBindings []VariableBinding
}

// ComponentLookup is the capability the engine needs from a component catalog.
type ComponentLookup interface {
	Lookup(typ string) (Component, bool)
	HasField(typ, field string) bool
	DefaultValue(typ, field string) (any, bool)
}

// Components is a concurrency-safe, in-memory ComponentLookup.
type Components struct {
	mu    sync.RWMutex
	items map[string]Component
}

// NewComponents creates a catalog pre-populated with components.
func NewComponents(components ...Component) *Components {
	c := &Components{items: make(map[string]Component, len(components))}
	for _, comp := range components {
		c.items[comp.Type] = comp
	}
	return c
}

// Register adds a component. An existing entry for the same type is overwritten.
func (c *Components) Register(comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[comp.Type] = comp
}

// Lookup returns the component registered for typ.
func (c *Components) Lookup(typ string) (Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comp, ok := c.items[typ]
	return comp, ok
}

// HasField reports whether typ declares field in its prop schema.
func (c *Components) HasField(typ, field string) bool {
	comp, ok := c.Lookup(typ)
	return ok && comp.Props.HasField(field)
}

// DefaultValue returns the schema default of field for typ.
func (c *Components) DefaultValue(typ, field string) (any, bool) {
	comp, ok := c.Lookup(typ)
	if !ok {
		return nil, false
	}
	return schema.Default(comp.Props, field)
}

// Types lists the registered types in lexical order.
func (c *Components) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.items))
	for t := range c.items {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
