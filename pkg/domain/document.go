package domain

// Document is the aggregate persisted and edited as one unit.
// It always holds at least one page once initialized.
type Document struct {
	Pages           []*Layer
	SelectedPageID  string
	SelectedLayerID string // empty means no layer is selected
	Variables       []Variable
}

// Page returns the root layer with the given id.
func (d Document) Page(id string) (*Layer, bool) {
	for _, p := range d.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// SelectedPage returns the page the selection cursor points at.
func (d Document) SelectedPage() *Layer {
	p, _ := d.Page(d.SelectedPageID)
	return p
}

// Variable returns the variable with the given id.
func (d Document) Variable(id string) (Variable, bool) {
	for _, v := range d.Variables {
		if v.ID == id {
			return v, true
		}
	}
	return Variable{}, false
}

// VariableMap indexes the variables by id.
func (d Document) VariableMap() map[string]Variable {
	out := make(map[string]Variable, len(d.Variables))
	for _, v := range d.Variables {
		out[v.ID] = v
	}
	return out
}
