package domain

// ChildrenKind tells which representation a Children value holds.
type ChildrenKind uint8

const (
	// ChildrenNone means the layer has no children capability (field absent).
	ChildrenNone ChildrenKind = iota
	// ChildrenLayers holds an ordered sequence of child layers (possibly empty).
	ChildrenLayers
	// ChildrenText holds literal text content.
	ChildrenText
	// ChildrenVariable binds the whole children field to a variable.
	ChildrenVariable
)

func (k ChildrenKind) String() string {
	switch k {
	case ChildrenLayers:
		return "layers"
	case ChildrenText:
		return "text"
	case ChildrenVariable:
		return "variable"
	default:
		return "none"
	}
}

// Children is the content of a layer. Exactly one representation is populated,
// selected by Kind. The zero value is "absent".
type Children struct {
	Kind ChildrenKind

	// Layers is set when Kind == ChildrenLayers.
	Layers []*Layer

	// Text is set when Kind == ChildrenText.
	Text string

	// VariableID is set when Kind == ChildrenVariable.
	VariableID string
}

// LayerChildren builds a container children value.
// Calling it without arguments yields an empty, but present, sequence.
func LayerChildren(layers ...*Layer) Children {
	if layers == nil {
		layers = []*Layer{}
	}
	return Children{Kind: ChildrenLayers, Layers: layers}
}

// TextChildren builds a literal text children value.
func TextChildren(text string) Children {
	return Children{Kind: ChildrenText, Text: text}
}

// VariableChildren binds the children field to the variable with the given id.
func VariableChildren(variableID string) Children {
	return Children{Kind: ChildrenVariable, VariableID: variableID}
}

// IsContainer reports whether the children hold a layer sequence.
func (c Children) IsContainer() bool {
	return c.Kind == ChildrenLayers
}

// AcceptsLayers reports whether a child layer may be inserted.
// Absent children, empty text and empty sequences can be (re)initialized as a
// container. Non-empty text and variable-bound children cannot.
func (c Children) AcceptsLayers() bool {
	switch c.Kind {
	case ChildrenNone, ChildrenLayers:
		return true
	case ChildrenText:
		return c.Text == ""
	default:
		return false
	}
}

// Layer is a node in the document tree representing one component instance.
//
// Layers reachable from a published Document must not be mutated; use the
// tree package to derive new trees.
type Layer struct {
	// ID is unique within a document.
	ID string

	// Type is a key into the component registry.
	Type string

	// Name is a human-readable label. Empty means no label.
	Name string

	Props    Props
	Children Children
}

// Clone returns a shallow copy of the layer with its own props map and
// children slice header. Child layers are shared.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Props = l.Props.Clone()
	if l.Children.Kind == ChildrenLayers {
		cp.Children.Layers = append([]*Layer{}, l.Children.Layers...)
	}
	return &cp
}

// DisplayName returns the name, falling back to the layer type.
func (l *Layer) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Type
}

// LayerPatch carries optional field replacements for UpdateLayer.
// Nil fields are left untouched.
type LayerPatch struct {
	Name     *string
	Type     *string
	Children *Children
}

// Apply returns a copy of the layer with the patch applied.
func (p *LayerPatch) Apply(l *Layer) *Layer {
	if p == nil {
		return l
	}
	cp := *l
	if p.Name != nil {
		cp.Name = *p.Name
	}
	if p.Type != nil {
		cp.Type = *p.Type
	}
	if p.Children != nil {
		cp.Children = *p.Children
	}
	return &cp
}
