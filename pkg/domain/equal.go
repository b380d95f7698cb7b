package domain

import "reflect"

// Equal reports whether two documents are structurally equal.
// Shared subtrees are recognised by pointer identity, so comparing a
// document with a copy-on-write successor only walks the changed path.
func Equal(a, b Document) bool {
	if a.SelectedPageID != b.SelectedPageID || a.SelectedLayerID != b.SelectedLayerID {
		return false
	}
	if !variablesEqual(a.Variables, b.Variables) {
		return false
	}
	return LayersEqual(a.Pages, b.Pages)
}

// LayersEqual compares two layer sequences element-wise.
func LayersEqual(a, b []*Layer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !LayerEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// LayerEqual compares two subtrees.
func LayerEqual(a, b *Layer) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.ID != b.ID || a.Type != b.Type || a.Name != b.Name {
		return false
	}
	if !propsEqual(a.Props, b.Props) {
		return false
	}
	ac, bc := a.Children, b.Children
	if ac.Kind != bc.Kind {
		return false
	}
	switch ac.Kind {
	case ChildrenLayers:
		return LayersEqual(ac.Layers, bc.Layers)
	case ChildrenText:
		return ac.Text == bc.Text
	case ChildrenVariable:
		return ac.VariableID == bc.VariableID
	}
	return true
}

func propsEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !propValueEqual(av, bv) {
			return false
		}
	}
	return true
}

func propValueEqual(a, b PropValue) bool {
	switch at := a.(type) {
	case Literal:
		bt, ok := b.(Literal)
		return ok && valueEqual(at.Value, bt.Value)
	case PropMap:
		bt, ok := b.(PropMap)
		return ok && propsEqual(Props(at), Props(bt))
	default:
		return reflect.DeepEqual(a, b)
	}
}

// valueEqual treats two functions as equal when they share a code pointer.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.Func && bv.Kind() == reflect.Func {
		return av.Pointer() == bv.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

func variablesEqual(a, b []Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
		if !valueEqual(a[i].DefaultValue, b[i].DefaultValue) {
			return false
		}
	}
	return true
}
