package tree

import "github.com/aretw0/arbor/pkg/domain"

// Visitor receives a node and its parent (nil for roots) and returns the node
// to keep in its place. Returning the input unchanged keeps the subtree shared.
type Visitor func(layer, parent *domain.Layer) *domain.Layer

// Visit applies visitor to layer in pre-order and then recurses into the
// children of the node the visitor returned. The result is rebuilt bottom-up:
// when neither the visitor nor any descendant replaced a node, the original
// pointer is returned.
func Visit(layer, parent *domain.Layer, visitor Visitor) *domain.Layer {
	visited := visitor(layer, parent)
	if visited == nil || visited.Children.Kind != domain.ChildrenLayers {
		return visited
	}

	children := visited.Children.Layers
	var rebuilt []*domain.Layer
	for i, child := range children {
		next := Visit(child, visited, visitor)
		if rebuilt == nil && next != child {
			rebuilt = make([]*domain.Layer, len(children))
			copy(rebuilt, children[:i])
		}
		if rebuilt != nil {
			rebuilt[i] = next
		}
	}
	if rebuilt == nil {
		return visited
	}

	out := *visited
	out.Children = domain.LayerChildren(rebuilt...)
	return &out
}

// visitAll applies Visit to every root, sharing the slice when nothing changed.
func visitAll(roots []*domain.Layer, visitor Visitor) []*domain.Layer {
	var out []*domain.Layer
	for i, root := range roots {
		next := Visit(root, nil, visitor)
		if out == nil && next != root {
			out = make([]*domain.Layer, len(roots))
			copy(out, roots[:i])
		}
		if out != nil {
			out[i] = next
		}
	}
	if out == nil {
		return roots
	}
	return out
}

// CountLayers returns the number of layers in the forest.
// Text, variable-bound and absent children contribute nothing.
func CountLayers(layers []*domain.Layer) int {
	n := 0
	for _, l := range layers {
		n++
		if l.Children.Kind == domain.ChildrenLayers {
			n += CountLayers(l.Children.Layers)
		}
	}
	return n
}

// FindLayer returns the first layer with the given id in pre-order, or nil.
func FindLayer(layers []*domain.Layer, id string) *domain.Layer {
	for _, l := range layers {
		if l.ID == id {
			return l
		}
		if l.Children.Kind == domain.ChildrenLayers {
			if found := FindLayer(l.Children.Layers, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindAncestors returns the chain of ancestors of id, outermost first.
// The result is empty for roots and unknown ids.
func FindAncestors(layers []*domain.Layer, id string) []*domain.Layer {
	var path []*domain.Layer
	var found []*domain.Layer

	var search func([]*domain.Layer) bool
	search = func(ls []*domain.Layer) bool {
		for _, l := range ls {
			if l.ID == id {
				found = append([]*domain.Layer{}, path...)
				return true
			}
			if l.Children.Kind != domain.ChildrenLayers {
				continue
			}
			path = append(path, l)
			if search(l.Children.Layers) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	if search(layers) {
		return found
	}
	return []*domain.Layer{}
}

// FindParent returns the parent of id and the index of id within it.
// For roots the parent is nil. ok is false when id is unknown.
func FindParent(layers []*domain.Layer, id string) (parent *domain.Layer, index int, ok bool) {
	for i, l := range layers {
		if l.ID == id {
			return nil, i, true
		}
	}
	var search func(*domain.Layer) (*domain.Layer, int, bool)
	search = func(l *domain.Layer) (*domain.Layer, int, bool) {
		if l.Children.Kind != domain.ChildrenLayers {
			return nil, 0, false
		}
		for i, c := range l.Children.Layers {
			if c.ID == id {
				return l, i, true
			}
		}
		for _, c := range l.Children.Layers {
			if p, idx, found := search(c); found {
				return p, idx, true
			}
		}
		return nil, 0, false
	}
	for _, l := range layers {
		if p, idx, found := search(l); found {
			return p, idx, true
		}
	}
	return nil, 0, false
}

// Walk iterates the forest in pre-order. When fn returns false the children
// of that layer are skipped.
func Walk(layers []*domain.Layer, fn func(layer *domain.Layer, depth int) bool) {
	walk(layers, 0, fn)
}

func walk(layers []*domain.Layer, depth int, fn func(*domain.Layer, int) bool) {
	for _, l := range layers {
		if !fn(l, depth) {
			continue
		}
		if l.Children.Kind == domain.ChildrenLayers {
			walk(l.Children.Layers, depth+1, fn)
		}
	}
}

// Contains reports whether id is root itself or one of its descendants.
func Contains(root *domain.Layer, id string) bool {
	return FindLayer([]*domain.Layer{root}, id) != nil
}
