package dsl

import "github.com/aretw0/arbor/pkg/domain"

// LayerBuilder provides a fluent API for configuring a layer.
type LayerBuilder struct {
	layer    domain.Layer
	children []*LayerBuilder
}

// Layer starts a layer with an explicit id and component type.
func Layer(id, typ string) *LayerBuilder {
	return &LayerBuilder{layer: domain.Layer{ID: id, Type: typ, Props: domain.Props{}}}
}

// Name sets the display name.
func (l *LayerBuilder) Name(name string) *LayerBuilder {
	l.layer.Name = name
	return l
}

// Prop sets a prop from a plain value. Maps shaped like variable references
// are recognized.
func (l *LayerBuilder) Prop(key string, value any) *LayerBuilder {
	l.layer.Props[key] = domain.NewPropValue(value)
	return l
}

// Bind makes a prop reference a variable.
func (l *LayerBuilder) Bind(key, variableID string) *LayerBuilder {
	l.layer.Props[key] = domain.Ref(variableID)
	return l
}

// Function binds prop to a function registry entry.
func (l *LayerBuilder) Function(prop, functionID string) *LayerBuilder {
	l.layer.Props[domain.FunctionPropPrefix+prop] = domain.FunctionRef{ID: functionID}
	return l
}

// Text sets literal text children, replacing any child layers.
func (l *LayerBuilder) Text(text string) *LayerBuilder {
	l.children = nil
	l.layer.Children = domain.TextChildren(text)
	return l
}

// BindChildren binds the whole children field to a variable.
func (l *LayerBuilder) BindChildren(variableID string) *LayerBuilder {
	l.children = nil
	l.layer.Children = domain.VariableChildren(variableID)
	return l
}

// Add appends child layers, turning the layer into a container.
func (l *LayerBuilder) Add(children ...*LayerBuilder) *LayerBuilder {
	l.layer.Children = domain.LayerChildren()
	l.children = append(l.children, children...)
	return l
}

// Build returns the layer and its subtree.
func (l *LayerBuilder) Build() *domain.Layer {
	out := l.layer
	out.Props = l.layer.Props.Clone()
	if out.Children.Kind == domain.ChildrenLayers {
		kids := make([]*domain.Layer, len(l.children))
		for i, c := range l.children {
			kids[i] = c.Build()
		}
		out.Children = domain.LayerChildren(kids...)
	}
	return &out
}
