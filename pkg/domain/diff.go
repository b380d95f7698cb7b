package domain

import "sort"

// DocumentDiff represents the changes between two documents.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	// Added lists ids of layers present only in the new document.
	Added []string `json:"added,omitempty"`

	// Removed lists ids of layers present only in the old document.
	Removed []string `json:"removed,omitempty"`

	// Updated lists ids of layers whose own fields or direct child order changed.
	Updated []string `json:"updated,omitempty"`

	SelectedPageID  *string `json:"selected_page_id,omitempty"`
	SelectedLayerID *string `json:"selected_layer_id,omitempty"`

	// Variables carries the full variable list when it changed.
	Variables []Variable `json:"variables,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, every layer of newDoc is reported as added (initial load).
func Diff(oldDoc, newDoc *Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}

	diff := &DocumentDiff{}
	newIndex := indexLayers(newDoc.Pages)
	oldIndex := map[string]*Layer{}
	if oldDoc != nil {
		oldIndex = indexLayers(oldDoc.Pages)
	}

	for id, nl := range newIndex {
		ol, ok := oldIndex[id]
		switch {
		case !ok:
			diff.Added = append(diff.Added, id)
		case ol != nl && !nodeEqual(ol, nl):
			diff.Updated = append(diff.Updated, id)
		}
	}
	for id := range oldIndex {
		if _, ok := newIndex[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Updated)

	if oldDoc == nil || oldDoc.SelectedPageID != newDoc.SelectedPageID {
		diff.SelectedPageID = &newDoc.SelectedPageID
	}
	if oldDoc == nil || oldDoc.SelectedLayerID != newDoc.SelectedLayerID {
		diff.SelectedLayerID = &newDoc.SelectedLayerID
	}
	if oldDoc == nil || !variablesEqual(oldDoc.Variables, newDoc.Variables) {
		diff.Variables = newDoc.Variables
		if diff.Variables == nil {
			diff.Variables = []Variable{}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Updated) == 0 &&
		d.SelectedPageID == nil &&
		d.SelectedLayerID == nil &&
		d.Variables == nil
}

func indexLayers(layers []*Layer) map[string]*Layer {
	out := make(map[string]*Layer)
	var walk func([]*Layer)
	walk = func(ls []*Layer) {
		for _, l := range ls {
			out[l.ID] = l
			if l.Children.Kind == ChildrenLayers {
				walk(l.Children.Layers)
			}
		}
	}
	walk(layers)
	return out
}

// nodeEqual compares a single node, looking at child ids but not child content.
func nodeEqual(a, b *Layer) bool {
	if a.Type != b.Type || a.Name != b.Name || !propsEqual(a.Props, b.Props) {
		return false
	}
	if a.Children.Kind != b.Children.Kind {
		return false
	}
	switch a.Children.Kind {
	case ChildrenText:
		return a.Children.Text == b.Children.Text
	case ChildrenVariable:
		return a.Children.VariableID == b.Children.VariableID
	case ChildrenLayers:
		if len(a.Children.Layers) != len(b.Children.Layers) {
			return false
		}
		for i := range a.Children.Layers {
			if a.Children.Layers[i].ID != b.Children.Layers[i].ID {
				return false
			}
		}
	}
	return true
}
