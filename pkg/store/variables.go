package store

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// AddVariable creates a variable with a fresh id.
func (s *Store) AddVariable(name string, typ domain.VariableType, defaultValue any) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("%s %q: %w", OpAddVariable, typ, domain.ErrInvalidVariableType)
	}
	v := domain.Variable{ID: s.newID(), Name: name, Type: typ, DefaultValue: defaultValue}

	next := s.doc
	next.Variables = append(append(make([]domain.Variable, 0, len(s.doc.Variables)+1), s.doc.Variables...), v)
	s.commit(OpAddVariable, next)
	return v.ID, nil
}

// UpdateVariable merges patch into the variable with id.
func (s *Store) UpdateVariable(id string, patch domain.VariablePatch) error {
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("%s %q: %w", OpUpdateVariable, *patch.Type, domain.ErrInvalidVariableType)
	}
	idx := variableIndex(s.doc.Variables, id)
	if idx < 0 {
		return s.notFound(OpUpdateVariable, domain.ErrVariableNotFound, "variable_id", id)
	}

	vars := append([]domain.Variable{}, s.doc.Variables...)
	vars[idx] = patch.Apply(vars[idx])

	next := s.doc
	next.Variables = vars
	s.commit(OpUpdateVariable, next)
	return nil
}

// RemoveVariable deletes the variable and replaces every reference to it with
// the schema default of the referencing prop, deleting the prop when there is
// none. Children bound to the variable fall back to the component's default
// text, or become absent.
func (s *Store) RemoveVariable(id string) error {
	idx := variableIndex(s.doc.Variables, id)
	if idx < 0 {
		return s.notFound(OpRemoveVariable, domain.ErrVariableNotFound, "variable_id", id)
	}

	vars := make([]domain.Variable, 0, len(s.doc.Variables)-1)
	vars = append(vars, s.doc.Variables[:idx]...)
	vars = append(vars, s.doc.Variables[idx+1:]...)

	pages := make([]*domain.Layer, len(s.doc.Pages))
	for i, p := range s.doc.Pages {
		pages[i] = tree.Visit(p, nil, func(l, _ *domain.Layer) *domain.Layer {
			return s.unlinkVariable(l, id)
		})
	}

	next := s.doc
	next.Variables = vars
	next.Pages = pages
	s.commit(OpRemoveVariable, next)
	return nil
}

// unlinkVariable returns l without references to the variable id, or l itself
// when it holds none.
func (s *Store) unlinkVariable(l *domain.Layer, id string) *domain.Layer {
	var out *domain.Layer
	for key, value := range l.Props {
		if !domain.ReferencesVariable(value, id) {
			continue
		}
		if out == nil {
			out = l.Clone()
		}
		if ref, ok := value.(domain.VariableRef); ok && ref.ID == id {
			if def, ok := s.defaultValue(l.Type, key); ok {
				out.Props[key] = domain.NewPropValue(def)
			} else {
				delete(out.Props, key)
			}
			continue
		}
		if m, ok := value.(domain.PropMap); ok {
			out.Props[key] = stripNested(m, id)
		}
	}

	if l.Children.Kind == domain.ChildrenVariable && l.Children.VariableID == id {
		if out == nil {
			out = l.Clone()
		}
		out.Children = domain.Children{}
		if comp, ok := s.lookup(l.Type); ok && comp.DefaultChildren.Kind == domain.ChildrenText {
			out.Children = comp.DefaultChildren
		}
	}

	if out == nil {
		return l
	}
	return out
}

// stripNested drops references to id from a nested prop map. Nested keys
// have no schema, so they are deleted.
func stripNested(m domain.PropMap, id string) domain.PropMap {
	out := make(domain.PropMap, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case domain.VariableRef:
			if t.ID == id {
				continue
			}
		case domain.PropMap:
			if domain.ReferencesVariable(t, id) {
				v = stripNested(t, id)
			}
		}
		out[k] = v
	}
	return out
}

// BindPropToVariable makes the prop of a layer reference a variable.
func (s *Store) BindPropToVariable(layerID, propName, variableID string) error {
	if variableIndex(s.doc.Variables, variableID) < 0 {
		return s.notFound(OpBindPropToVariable, domain.ErrVariableNotFound, "variable_id", variableID)
	}
	pages, ok := tree.UpdateLayer(s.doc.Pages, layerID, func(l *domain.Layer) *domain.Layer {
		out := l.Clone()
		if out.Props == nil {
			out.Props = domain.Props{}
		}
		out.Props[propName] = domain.Ref(variableID)
		return out
	})
	if !ok {
		return s.notFound(OpBindPropToVariable, domain.ErrLayerNotFound, "layer_id", layerID)
	}

	next := s.doc
	next.Pages = pages
	s.commit(OpBindPropToVariable, next)
	return nil
}

// UnbindPropFromVariable replaces a variable reference with the schema default
// of the prop, or an empty string when the schema declares none. Props that are
// not references are left alone.
func (s *Store) UnbindPropFromVariable(layerID, propName string) error {
	pages, ok := tree.UpdateLayer(s.doc.Pages, layerID, func(l *domain.Layer) *domain.Layer {
		if _, isRef := l.Props[propName].(domain.VariableRef); !isRef {
			return l
		}
		def, found := s.defaultValue(l.Type, propName)
		if !found {
			def = ""
		}
		out := l.Clone()
		out.Props[propName] = domain.NewPropValue(def)
		return out
	})
	if !ok {
		return s.notFound(OpUnbindPropFromVariable, domain.ErrLayerNotFound, "layer_id", layerID)
	}

	next := s.doc
	next.Pages = pages
	s.commit(OpUnbindPropFromVariable, next)
	return nil
}

func variableIndex(vars []domain.Variable, id string) int {
	for i, v := range vars {
		if v.ID == id {
			return i
		}
	}
	return -1
}
