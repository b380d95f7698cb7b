package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
)

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

type addLayerRequest struct {
	Type     string `mapstructure:"type"`
	ParentID string `mapstructure:"parentId"`
	Index    *int   `mapstructure:"index"`
}

type addPageRequest struct {
	Name string `mapstructure:"name"`
}

type moveLayerRequest struct {
	ParentID string `mapstructure:"parentId"`
	Index    *int   `mapstructure:"index"`
}

type updateLayerRequest struct {
	Props    map[string]any `mapstructure:"props"`
	Name     *string        `mapstructure:"name"`
	Type     *string        `mapstructure:"type"`
	Children any            `mapstructure:"children"`
}

type selectRequest struct {
	PageID  *string `mapstructure:"pageId"`
	LayerID *string `mapstructure:"layerId"`
}

type variableRequest struct {
	Name         *string `mapstructure:"name"`
	Type         *string `mapstructure:"type"`
	DefaultValue any     `mapstructure:"defaultValue"`
}

type bindRequest struct {
	VariableID string `mapstructure:"variableId"`
}

func position(index *int) tree.Position {
	if index == nil {
		return tree.AtEnd
	}
	return tree.At(*index)
}

func (s *Server) created(w http.ResponseWriter, id string) {
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetDocument handles GET /document. The body is the persisted form.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, codec.Encode(s.Editor.Document()))
}

// ReplaceDocument handles PUT /document. Older document versions are migrated.
func (s *Server) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		s.writeError(w, "replace_document", badRequest(err))
		return
	}
	doc, err := codec.Decode(raw)
	if err != nil {
		s.writeError(w, "replace_document", badRequest(err))
		return
	}
	err = s.Editor.Update(func(st *store.Store) error {
		return st.Initialize(doc)
	})
	if err != nil {
		s.writeError(w, "replace_document", err)
		return
	}
	s.writeJSON(w, http.StatusOK, codec.Encode(s.Editor.Document()))
}

// SaveDocument handles POST /document/save.
func (s *Server) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Save(r.Context()); err != nil {
		s.writeError(w, "save_document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) history(w http.ResponseWriter, op string, step func(*store.Store) bool) {
	var changed bool
	_ = s.Editor.Update(func(st *store.Store) error {
		changed = step(st)
		return nil
	})
	s.logger.Debug("history step", "op", op, "changed", changed)
	s.writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// Undo handles POST /document/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.history(w, store.OpUndo, (*store.Store).Undo)
}

// Redo handles POST /document/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.history(w, store.OpRedo, (*store.Store).Redo)
}

// Select handles PUT /document/selection. A layer id wins over a page id.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, store.OpSelectLayer, badRequest(err))
		return
	}
	err := s.Editor.Update(func(st *store.Store) error {
		switch {
		case req.LayerID != nil:
			return st.SelectLayer(*req.LayerID)
		case req.PageID != nil:
			return st.SelectPage(*req.PageID)
		}
		return badRequest(errors.New("pageId or layerId is required"))
	})
	if err != nil {
		s.writeError(w, store.OpSelectLayer, err)
		return
	}
	doc := s.Editor.Document()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"selectedPageId":  doc.SelectedPageID,
		"selectedLayerId": doc.SelectedLayerID,
	})
}

// AddPage handles POST /pages.
func (s *Server) AddPage(w http.ResponseWriter, r *http.Request) {
	var req addPageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, store.OpAddPageLayer, badRequest(err))
		return
	}
	var id string
	_ = s.Editor.Update(func(st *store.Store) error {
		id = st.AddPageLayer(req.Name)
		return nil
	})
	s.created(w, id)
}

// AddLayer handles POST /layers.
func (s *Server) AddLayer(w http.ResponseWriter, r *http.Request) {
	var req addLayerRequest
	if err := decodeBody(r, &req); err != nil || req.Type == "" {
		if err == nil {
			err = errors.New("type is required")
		}
		s.writeError(w, store.OpAddComponentLayer, badRequest(err))
		return
	}
	var id string
	err := s.Editor.Update(func(st *store.Store) error {
		var err error
		id, err = st.AddComponentLayer(req.Type, req.ParentID, position(req.Index))
		return err
	})
	if err != nil {
		s.writeError(w, store.OpAddComponentLayer, err)
		return
	}
	if id == "" {
		s.writeError(w, store.OpAddComponentLayer, badRequest(fmt.Errorf("layer %q cannot hold children", req.ParentID)))
		return
	}
	s.created(w, id)
}

// GetLayer handles GET /layers/{layerID}.
func (s *Server) GetLayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "layerID")
	layer := tree.FindLayer(s.Editor.Document().Pages, id)
	if layer == nil {
		s.writeError(w, "get_layer", fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, codec.EncodeLayer(layer))
}

// ResolveLayer handles GET /layers/{layerID}/resolved. Query parameters
// override variable values by variable id.
func (s *Server) ResolveLayer(w http.ResponseWriter, r *http.Request) {
	overrides := map[string]any{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			overrides[k] = v[0]
		}
	}
	resolved, err := s.Editor.Resolve(chi.URLParam(r, "layerID"), overrides)
	if err != nil {
		s.writeError(w, "resolve_layer", err)
		return
	}
	out := map[string]any{
		"id":    resolved.ID,
		"type":  resolved.Type,
		"name":  resolved.Name,
		"props": resolved.Props,
	}
	if resolved.Children.Kind == domain.ChildrenText {
		out["children"] = resolved.Children.Text
	}
	s.writeJSON(w, http.StatusOK, out)
}

// UpdateLayer handles PATCH /layers/{layerID}.
func (s *Server) UpdateLayer(w http.ResponseWriter, r *http.Request) {
	var req updateLayerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, store.OpUpdateLayer, badRequest(err))
		return
	}
	patch := &domain.LayerPatch{Name: req.Name, Type: req.Type}
	if req.Children != nil {
		children, err := codec.DecodeChildren(req.Children)
		if err != nil {
			s.writeError(w, store.OpUpdateLayer, badRequest(err))
			return
		}
		patch.Children = &children
	}
	err := s.Editor.Update(func(st *store.Store) error {
		return st.UpdateLayer(chi.URLParam(r, "layerID"), domain.PropsFromMap(req.Props), patch)
	})
	if err != nil {
		s.writeError(w, store.OpUpdateLayer, err)
		return
	}
	s.GetLayer(w, r)
}

// RemoveLayer handles DELETE /layers/{layerID}.
func (s *Server) RemoveLayer(w http.ResponseWriter, r *http.Request) {
	err := s.Editor.Update(func(st *store.Store) error {
		return st.RemoveLayer(chi.URLParam(r, "layerID"))
	})
	if err != nil {
		s.writeError(w, store.OpRemoveLayer, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateLayer handles POST /layers/{layerID}/duplicate.
func (s *Server) DuplicateLayer(w http.ResponseWriter, r *http.Request) {
	var id string
	err := s.Editor.Update(func(st *store.Store) error {
		var err error
		id, err = st.DuplicateLayer(chi.URLParam(r, "layerID"))
		return err
	})
	if err != nil {
		s.writeError(w, store.OpDuplicateLayer, err)
		return
	}
	s.created(w, id)
}

// MoveLayer handles POST /layers/{layerID}/move.
func (s *Server) MoveLayer(w http.ResponseWriter, r *http.Request) {
	var req moveLayerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, store.OpMoveLayer, badRequest(err))
		return
	}
	err := s.Editor.Update(func(st *store.Store) error {
		return st.MoveLayer(chi.URLParam(r, "layerID"), req.ParentID, position(req.Index))
	})
	if err != nil {
		s.writeError(w, store.OpMoveLayer, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BindProp handles PUT /layers/{layerID}/bindings/{prop}.
func (s *Server) BindProp(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, store.OpBindPropToVariable, badRequest(err))
		return
	}
	err := s.Editor.Update(func(st *store.Store) error {
		return st.BindPropToVariable(chi.URLParam(r, "layerID"), chi.URLParam(r, "prop"), req.VariableID)
	})
	if err != nil {
		s.writeError(w, store.OpBindPropToVariable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnbindProp handles DELETE /layers/{layerID}/bindings/{prop}.
func (s *Server) UnbindProp(w http.ResponseWriter, r *http.Request) {
	err := s.Editor.Update(func(st *store.Store) error {
		return st.UnbindPropFromVariable(chi.URLParam(r, "layerID"), chi.URLParam(r, "prop"))
	})
	if err != nil {
		s.writeError(w, store.OpUnbindPropFromVariable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVariables handles GET /variables.
func (s *Server) ListVariables(w http.ResponseWriter, r *http.Request) {
	vars := s.Editor.Document().Variables
	if vars == nil {
		vars = []domain.Variable{}
	}
	s.writeJSON(w, http.StatusOK, vars)
}

// AddVariable handles POST /variables.
func (s *Server) AddVariable(w http.ResponseWriter, r *http.Request) {
	var req variableRequest
	if err := decodeBody(r, &req); err != nil || req.Name == nil || req.Type == nil {
		if err == nil {
			err = errors.New("name and type are required")
		}
		s.writeError(w, store.OpAddVariable, badRequest(err))
		return
	}
	var id string
	err := s.Editor.Update(func(st *store.Store) error {
		var err error
		id, err = st.AddVariable(*req.Name, domain.VariableType(*req.Type), req.DefaultValue)
		return err
	})
	if err != nil {
		s.writeError(w, store.OpAddVariable, err)
		return
	}
	s.created(w, id)
}

// UpdateVariable handles PATCH /variables/{variableID}. A defaultValue key,
// even null, replaces the default.
func (s *Server) UpdateVariable(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		s.writeError(w, store.OpUpdateVariable, badRequest(err))
		return
	}
	var req variableRequest
	if err := mapstructure.Decode(raw, &req); err != nil {
		s.writeError(w, store.OpUpdateVariable, badRequest(err))
		return
	}
	patch := domain.VariablePatch{Name: req.Name}
	if req.Type != nil {
		typ := domain.VariableType(*req.Type)
		patch.Type = &typ
	}
	if v, ok := raw["defaultValue"]; ok {
		patch.DefaultValue, patch.SetDefault = v, true
	}
	err := s.Editor.Update(func(st *store.Store) error {
		return st.UpdateVariable(chi.URLParam(r, "variableID"), patch)
	})
	if err != nil {
		s.writeError(w, store.OpUpdateVariable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveVariable handles DELETE /variables/{variableID}.
func (s *Server) RemoveVariable(w http.ResponseWriter, r *http.Request) {
	err := s.Editor.Update(func(st *store.Store) error {
		return st.RemoveVariable(chi.URLParam(r, "variableID"))
	})
	if err != nil {
		s.writeError(w, store.OpRemoveVariable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
