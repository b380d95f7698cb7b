package store

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/tree"
)

func (s *Store) newPage(name string) *domain.Layer {
	return &domain.Layer{
		ID:       s.newID(),
		Type:     s.pageType,
		Name:     name,
		Props:    s.defaultProps(s.pageType, nil),
		Children: domain.LayerChildren(),
	}
}

// defaultProps builds the initial props of a new layer of typ: schema
// defaults, then default bindings whose variable exists.
func (s *Store) defaultProps(typ string, vars []domain.Variable) domain.Props {
	props := domain.Props{}
	comp, ok := s.lookup(typ)
	if !ok {
		return props
	}
	for k, v := range schema.Defaults(comp.Props) {
		props[k] = domain.NewPropValue(v)
	}
	for _, b := range comp.DefaultVariableBindings {
		if variableIndex(vars, b.VariableID) >= 0 {
			props[b.PropName] = domain.Ref(b.VariableID)
		}
	}
	return props
}

// AddComponentLayer creates a layer of typ under parentID (the selected page
// when empty) and returns its id. Parents whose children cannot hold layers
// are left untouched and the returned id is empty.
func (s *Store) AddComponentLayer(typ, parentID string, pos tree.Position) (string, error) {
	if parentID == "" {
		parentID = s.doc.SelectedPageID
	}
	parent := tree.FindLayer(s.doc.Pages, parentID)
	if parent == nil {
		return "", s.notFound(OpAddComponentLayer, domain.ErrLayerNotFound, "layer_id", parentID)
	}
	if !parent.Children.AcceptsLayers() {
		s.logger.Debug("parent cannot hold layers", "op", OpAddComponentLayer, "layer_id", parentID,
			"children", parent.Children.Kind.String())
		return "", nil
	}

	layer := &domain.Layer{
		ID:    s.newID(),
		Type:  typ,
		Name:  typ,
		Props: s.defaultProps(typ, s.doc.Variables),
	}
	if comp, ok := s.lookup(typ); ok {
		layer.Children = tree.CloneChildrenWithNewIDs(comp.DefaultChildren, s.newID)
	}

	next := s.doc
	next.Pages = tree.AddLayer(s.doc.Pages, layer, parentID, pos)
	s.commit(OpAddComponentLayer, next)
	return layer.ID, nil
}

// AddPageLayer appends an empty page, selects it and returns its id.
func (s *Store) AddPageLayer(name string) string {
	page := s.newPage(name)

	next := s.doc
	next.Pages = append(append(make([]*domain.Layer, 0, len(s.doc.Pages)+1), s.doc.Pages...), page)
	next.SelectedPageID = page.ID
	next.SelectedLayerID = ""
	s.commit(OpAddPageLayer, next)
	return page.ID
}

// DuplicateLayer deep-copies the layer with fresh ids and returns the copy's id.
// A duplicated page becomes the selected page.
func (s *Store) DuplicateLayer(id string) (string, error) {
	pages, clone := tree.DuplicateLayerWith(s.doc.Pages, id, s.newID)
	if clone == nil {
		return "", s.notFound(OpDuplicateLayer, domain.ErrLayerNotFound, "layer_id", id)
	}

	next := s.doc
	next.Pages = pages
	if isPage(s.doc.Pages, id) {
		next.SelectedPageID = clone.ID
		next.SelectedLayerID = ""
	}
	s.commit(OpDuplicateLayer, next)
	return clone.ID, nil
}

// RemoveLayer deletes a layer or a page. The last page cannot be removed.
func (s *Store) RemoveLayer(id string) error {
	page := isPage(s.doc.Pages, id)
	switch {
	case page && len(s.doc.Pages) == 1:
		s.logger.Warn("refusing to remove the last page", "op", OpRemoveLayer, "page_id", id)
		return fmt.Errorf("%s %q: %w", OpRemoveLayer, id, domain.ErrLastPage)
	case !page && tree.FindLayer(s.doc.Pages, id) == nil:
		return s.notFound(OpRemoveLayer, domain.ErrLayerNotFound, "layer_id", id)
	}

	next := s.doc
	next.Pages = tree.RemoveLayer(s.doc.Pages, id)
	if s.selectionRemoved(id) {
		next.SelectedLayerID = ""
	}
	if page && id == s.doc.SelectedPageID {
		next.SelectedPageID = next.Pages[0].ID
		next.SelectedLayerID = ""
	}
	s.commit(OpRemoveLayer, next)
	return nil
}

// selectionRemoved reports whether removing id takes the selected layer with it.
func (s *Store) selectionRemoved(id string) bool {
	sel := s.doc.SelectedLayerID
	if sel == "" {
		return false
	}
	if sel == id {
		return true
	}
	for _, a := range tree.FindAncestors(s.doc.Pages, sel) {
		if a.ID == id {
			return true
		}
	}
	return false
}

// MoveLayer re-parents a layer, keeping its subtree intact. An empty parentID
// targets the selected page.
func (s *Store) MoveLayer(id, parentID string, pos tree.Position) error {
	if parentID == "" {
		parentID = s.doc.SelectedPageID
	}
	pages, ok := tree.MoveLayer(s.doc.Pages, id, parentID, pos)
	if !ok {
		switch {
		case tree.FindLayer(s.doc.Pages, id) == nil:
			return s.notFound(OpMoveLayer, domain.ErrLayerNotFound, "layer_id", id)
		case tree.FindLayer(s.doc.Pages, parentID) == nil:
			return s.notFound(OpMoveLayer, domain.ErrLayerNotFound, "layer_id", parentID)
		}
		s.logger.Warn("move rejected", "op", OpMoveLayer, "layer_id", id, "parent_id", parentID)
		return fmt.Errorf("%s %q to %q: %w", OpMoveLayer, id, parentID, domain.ErrInvalidMove)
	}

	next := s.doc
	next.Pages = pages
	s.commit(OpMoveLayer, next)
	return nil
}

// UpdateLayer shallow-merges props into the layer and applies patch. Only the
// selected page and the layers under it can be updated.
func (s *Store) UpdateLayer(id string, props domain.Props, patch *domain.LayerPatch) error {
	page := s.doc.SelectedPage()
	if page == nil || !tree.Contains(page, id) {
		return s.notFound(OpUpdateLayer, domain.ErrLayerNotFound, "layer_id", id)
	}

	pages, _ := tree.UpdateLayer(s.doc.Pages, id, func(l *domain.Layer) *domain.Layer {
		out := *l
		if len(props) > 0 {
			out.Props = l.Props.Merge(props)
		}
		return patch.Apply(&out)
	})

	next := s.doc
	next.Pages = pages
	if patch != nil && patch.Children != nil && s.doc.SelectedLayerID != "" &&
		tree.FindLayer(pages, s.doc.SelectedLayerID) == nil {
		// Replacing children may drop the selected layer.
		next.SelectedLayerID = ""
	}
	s.commit(OpUpdateLayer, next)
	return nil
}

// SelectLayer moves the selection cursor to id, switching to the page that
// holds it. An empty id clears the layer selection and a page id selects that page.
func (s *Store) SelectLayer(id string) error {
	next := s.doc
	if id == "" {
		next.SelectedLayerID = ""
		s.commit(OpSelectLayer, next)
		return nil
	}
	if isPage(s.doc.Pages, id) {
		return s.SelectPage(id)
	}
	for _, p := range s.doc.Pages {
		if p.ID != id && tree.Contains(p, id) {
			next.SelectedPageID = p.ID
			next.SelectedLayerID = id
			s.commit(OpSelectLayer, next)
			return nil
		}
	}
	return s.notFound(OpSelectLayer, domain.ErrLayerNotFound, "layer_id", id)
}

// SelectPage switches the selected page. Changing page clears the layer selection.
func (s *Store) SelectPage(id string) error {
	if !isPage(s.doc.Pages, id) {
		return s.notFound(OpSelectPage, domain.ErrPageNotFound, "page_id", id)
	}
	next := s.doc
	if id != s.doc.SelectedPageID {
		next.SelectedPageID = id
		next.SelectedLayerID = ""
	}
	s.commit(OpSelectPage, next)
	return nil
}

// FindLayerByID searches every page, pages included. It returns nil when absent.
func (s *Store) FindLayerByID(id string) *domain.Layer {
	return tree.FindLayer(s.doc.Pages, id)
}

// FindLayersForPageID returns the top-level layers of a page.
func (s *Store) FindLayersForPageID(pageID string) []*domain.Layer {
	page, ok := s.doc.Page(pageID)
	if !ok || !page.Children.IsContainer() {
		return nil
	}
	return page.Children.Layers
}

func isPage(pages []*domain.Layer, id string) bool {
	for _, p := range pages {
		if p.ID == id {
			return true
		}
	}
	return false
}

// pageContains reports whether id is a descendant of page.
func pageContains(page *domain.Layer, id string) bool {
	return page != nil && page.ID != id && tree.Contains(page, id)
}
