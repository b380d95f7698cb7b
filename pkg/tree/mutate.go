package tree

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
)

// CopySuffix is appended to the name of a duplicated top-level layer.
const CopySuffix = " (Copy)"

// Position selects where a layer is inserted among its siblings.
type Position struct {
	index int
	set   bool
}

// AtEnd appends after the last sibling.
var AtEnd = Position{}

// At inserts at index i. Negative values clamp to 0, values past the end append.
func At(i int) Position {
	return Position{index: i, set: true}
}

func (p Position) resolve(n int) int {
	if !p.set || p.index >= n {
		return n
	}
	if p.index < 0 {
		return 0
	}
	return p.index
}

func insertAt(children []*domain.Layer, layer *domain.Layer, pos Position) []*domain.Layer {
	i := pos.resolve(len(children))
	out := make([]*domain.Layer, 0, len(children)+1)
	out = append(out, children[:i]...)
	out = append(out, layer)
	return append(out, children[i:]...)
}

// AddLayer inserts layer under parentID. A parent with absent children, empty
// text or an empty sequence is turned into a container first. Parents with
// non-empty text or variable-bound children are left untouched, as are trees
// that do not contain parentID.
func AddLayer(roots []*domain.Layer, layer *domain.Layer, parentID string, pos Position) []*domain.Layer {
	return visitAll(roots, func(l, _ *domain.Layer) *domain.Layer {
		if l.ID != parentID || !l.Children.AcceptsLayers() {
			return l
		}
		var current []*domain.Layer
		if l.Children.Kind == domain.ChildrenLayers {
			current = l.Children.Layers
		}
		out := *l
		out.Children = domain.LayerChildren(insertAt(current, layer, pos)...)
		return &out
	})
}

// RemoveLayer removes the layer with id. A root is dropped only when other
// roots remain.
func RemoveLayer(roots []*domain.Layer, id string) []*domain.Layer {
	if len(roots) > 1 {
		for i, r := range roots {
			if r.ID == id {
				out := make([]*domain.Layer, 0, len(roots)-1)
				out = append(out, roots[:i]...)
				return append(out, roots[i+1:]...)
			}
		}
	}
	return visitAll(roots, func(l, _ *domain.Layer) *domain.Layer {
		if l.Children.Kind != domain.ChildrenLayers {
			return l
		}
		idx := -1
		for i, c := range l.Children.Layers {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return l
		}
		kept := make([]*domain.Layer, 0, len(l.Children.Layers)-1)
		kept = append(kept, l.Children.Layers[:idx]...)
		kept = append(kept, l.Children.Layers[idx+1:]...)
		out := *l
		out.Children = domain.LayerChildren(kept...)
		return &out
	})
}

// CloneWithNewIDs deep-copies layer assigning a fresh id to every node.
func CloneWithNewIDs(layer *domain.Layer, newID ids.Generator) *domain.Layer {
	if layer == nil {
		return nil
	}
	out := *layer
	out.ID = newID()
	out.Props = layer.Props.Clone()
	if layer.Children.Kind == domain.ChildrenLayers {
		kids := make([]*domain.Layer, len(layer.Children.Layers))
		for i, c := range layer.Children.Layers {
			kids[i] = CloneWithNewIDs(c, newID)
		}
		out.Children = domain.LayerChildren(kids...)
	}
	return &out
}

// CloneChildrenWithNewIDs copies a children value, re-identifying layer sequences.
func CloneChildrenWithNewIDs(c domain.Children, newID ids.Generator) domain.Children {
	if c.Kind != domain.ChildrenLayers {
		return c
	}
	kids := make([]*domain.Layer, len(c.Layers))
	for i, l := range c.Layers {
		kids[i] = CloneWithNewIDs(l, newID)
	}
	return domain.LayerChildren(kids...)
}

// DuplicateLayer clones id with fresh ids using the default generator.
func DuplicateLayer(roots []*domain.Layer, id string) ([]*domain.Layer, *domain.Layer) {
	return DuplicateLayerWith(roots, id, ids.New)
}

// DuplicateLayerWith clones the subtree rooted at id. The clone's name gets
// CopySuffix; descendants keep their names. A duplicated root is appended to
// roots, any other layer is inserted right after the original.
// It returns the new roots and the clone, or the input and nil when id is unknown.
func DuplicateLayerWith(roots []*domain.Layer, id string, newID ids.Generator) ([]*domain.Layer, *domain.Layer) {
	original := FindLayer(roots, id)
	if original == nil {
		return roots, nil
	}
	clone := CloneWithNewIDs(original, newID)
	clone.Name = original.DisplayName() + CopySuffix

	parent, idx, _ := FindParent(roots, id)
	if parent == nil {
		out := make([]*domain.Layer, 0, len(roots)+1)
		out = append(out, roots...)
		return append(out, clone), clone
	}
	return AddLayer(roots, clone, parent.ID, At(idx+1)), clone
}

// MoveLayer detaches the subtree rooted at sourceID and re-inserts it under
// targetParentID following the AddLayer policy. The moved node keeps its
// identity. It reports false, returning roots untouched, when the source is
// unknown or a root, the target is unknown, or the target is inside the source.
func MoveLayer(roots []*domain.Layer, sourceID, targetParentID string, pos Position) ([]*domain.Layer, bool) {
	for _, r := range roots {
		if r.ID == sourceID {
			return roots, false
		}
	}
	source := FindLayer(roots, sourceID)
	if source == nil {
		return roots, false
	}
	target := FindLayer(roots, targetParentID)
	if target == nil || Contains(source, targetParentID) || !target.Children.AcceptsLayers() {
		return roots, false
	}

	detached := RemoveLayer(roots, sourceID)
	return AddLayer(detached, source, targetParentID, pos), true
}

// UpdateLayer replaces the node with id by fn(node). It reports whether a
// node matched.
func UpdateLayer(roots []*domain.Layer, id string, fn func(*domain.Layer) *domain.Layer) ([]*domain.Layer, bool) {
	matched := false
	out := visitAll(roots, func(l, _ *domain.Layer) *domain.Layer {
		if l.ID != id {
			return l
		}
		matched = true
		return fn(l)
	})
	return out, matched
}
