package mcp

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/outline"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the whole document in its persisted JSON form."),
	), s.handleGetDocument)

	s.mcpServer.AddTool(mcp.NewTool("outline",
		mcp.WithDescription("Get an indented outline of every page with layer ids. The selected page is marked with * and the selected layer with >."),
	), s.handleOutline)

	s.mcpServer.AddTool(mcp.NewTool("add_component_layer",
		mcp.WithDescription("Add a component layer. Returns the new layer id."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Component type, e.g. Button")),
		mcp.WithString("parent_id", mcp.Description("Parent layer id (defaults to the selected page)")),
		mcp.WithNumber("index", mcp.Description("Position among the parent's children (defaults to the end)")),
	), s.handleAddComponentLayer)

	s.mcpServer.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Add an empty page and select it. Returns the page id."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name")),
	), s.handleAddPage)

	s.mcpServer.AddTool(mcp.NewTool("duplicate_layer",
		mcp.WithDescription("Deep-copy a layer or page with fresh ids. Returns the copy's id."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer or page id")),
	), s.handleDuplicateLayer)

	s.mcpServer.AddTool(mcp.NewTool("remove_layer",
		mcp.WithDescription("Remove a layer or page. The last page cannot be removed."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer or page id")),
	), s.handleRemoveLayer)

	s.mcpServer.AddTool(mcp.NewTool("move_layer",
		mcp.WithDescription("Move a layer under another parent."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer to move")),
		mcp.WithString("parent_id", mcp.Description("New parent (defaults to the selected page)")),
		mcp.WithNumber("index", mcp.Description("Position among the new parent's children")),
	), s.handleMoveLayer)

	s.mcpServer.AddTool(mcp.NewTool("update_layer",
		mcp.WithDescription("Merge props into a layer of the selected page and optionally rename it or replace its text."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer id")),
		mcp.WithString("props", mcp.Description("JSON object of props to merge")),
		mcp.WithString("name", mcp.Description("New display name")),
		mcp.WithString("text", mcp.Description("Replace the children with this text")),
	), s.handleUpdateLayer)

	s.mcpServer.AddTool(mcp.NewTool("select_layer",
		mcp.WithDescription("Select a layer (switching to its page) or a page. An empty id clears the layer selection."),
		mcp.WithString("layer_id", mcp.Description("Layer or page id")),
	), s.handleSelectLayer)

	s.mcpServer.AddTool(mcp.NewTool("add_variable",
		mcp.WithDescription("Declare a document variable. Returns the variable id."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("string, number, boolean or function")),
		mcp.WithString("default_value", mcp.Description("Default value as JSON (plain text is taken as a string)")),
	), s.handleAddVariable)

	s.mcpServer.AddTool(mcp.NewTool("update_variable",
		mcp.WithDescription("Rename a variable, change its type or default."),
		mcp.WithString("variable_id", mcp.Required(), mcp.Description("Variable id")),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("type", mcp.Description("New type")),
		mcp.WithString("default_value", mcp.Description("New default as JSON")),
	), s.handleUpdateVariable)

	s.mcpServer.AddTool(mcp.NewTool("remove_variable",
		mcp.WithDescription("Remove a variable. Bound props fall back to their component defaults."),
		mcp.WithString("variable_id", mcp.Required(), mcp.Description("Variable id")),
	), s.handleRemoveVariable)

	s.mcpServer.AddTool(mcp.NewTool("bind_prop",
		mcp.WithDescription("Bind a layer prop to a variable."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer id")),
		mcp.WithString("prop", mcp.Required(), mcp.Description("Prop name")),
		mcp.WithString("variable_id", mcp.Required(), mcp.Description("Variable id")),
	), s.handleBindProp)

	s.mcpServer.AddTool(mcp.NewTool("unbind_prop",
		mcp.WithDescription("Replace a variable binding with the prop's default value."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer id")),
		mcp.WithString("prop", mcp.Required(), mcp.Description("Prop name")),
	), s.handleUnbindProp)

	s.mcpServer.AddTool(mcp.NewTool("resolve_layer",
		mcp.WithDescription("Get a layer's props and text with variables resolved."),
		mcp.WithString("layer_id", mcp.Required(), mcp.Description("Layer id")),
	), s.handleResolveLayer)

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change."),
	), s.handleUndo)

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change."),
	), s.handleRedo)

	s.mcpServer.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the document."),
	), s.handleSave)
}

func indexArg(req mcp.CallToolRequest) tree.Position {
	if v, ok := req.GetArguments()["index"].(float64); ok {
		return tree.At(int(v))
	}
	return tree.AtEnd
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(codec.Encode(s.editor.Document()))
}

func (s *Server) handleOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(outline.Text(s.editor.Document(), outline.Style{})), nil
}

func (s *Server) handleAddComponentLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := requireString(req, "type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID := req.GetString("parent_id", "")
	return s.mutate(store.OpAddComponentLayer, func(st *store.Store) (string, error) {
		id, err := st.AddComponentLayer(typ, parentID, indexArg(req))
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", fmt.Errorf("layer %q cannot hold child layers", parentID)
		}
		return id, nil
	}), nil
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	return s.mutate(store.OpAddPageLayer, func(st *store.Store) (string, error) {
		return st.AddPageLayer(name), nil
	}), nil
}

func (s *Server) handleDuplicateLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(store.OpDuplicateLayer, func(st *store.Store) (string, error) {
		return st.DuplicateLayer(id)
	}), nil
}

func (s *Server) handleRemoveLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(store.OpRemoveLayer, func(st *store.Store) (string, error) {
		return "removed " + id, st.RemoveLayer(id)
	}), nil
}

func (s *Server) handleMoveLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID := req.GetString("parent_id", "")
	return s.mutate(store.OpMoveLayer, func(st *store.Store) (string, error) {
		return "moved " + id, st.MoveLayer(id, parentID, indexArg(req))
	}), nil
}

func (s *Server) handleUpdateLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var props domain.Props
	if raw, ok := jsonArg(req, "props"); ok {
		m, isMap := raw.(map[string]any)
		if !isMap {
			return mcp.NewToolResultError("props must be a JSON object"), nil
		}
		props = domain.PropsFromMap(m)
	}
	patch := &domain.LayerPatch{}
	args := req.GetArguments()
	if name, ok := args["name"].(string); ok {
		patch.Name = &name
	}
	if text, ok := args["text"].(string); ok {
		children := domain.TextChildren(text)
		patch.Children = &children
	}

	return s.mutate(store.OpUpdateLayer, func(st *store.Store) (string, error) {
		return "updated " + id, st.UpdateLayer(id, props, patch)
	}), nil
}

func (s *Server) handleSelectLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("layer_id", "")
	return s.mutate(store.OpSelectLayer, func(st *store.Store) (string, error) {
		if err := st.SelectLayer(id); err != nil {
			return "", err
		}
		doc := st.Document()
		return fmt.Sprintf("page=%s layer=%s", doc.SelectedPageID, doc.SelectedLayerID), nil
	}), nil
}

func (s *Server) handleAddVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := domain.ParseVariableType(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, _ := jsonArg(req, "default_value")
	return s.mutate(store.OpAddVariable, func(st *store.Store) (string, error) {
		return st.AddVariable(name, typ, def)
	}), nil
}

func (s *Server) handleUpdateVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "variable_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var patch domain.VariablePatch
	args := req.GetArguments()
	if name, ok := args["name"].(string); ok {
		patch.Name = &name
	}
	if t, ok := args["type"].(string); ok {
		typ := domain.VariableType(t)
		patch.Type = &typ
	}
	if def, ok := jsonArg(req, "default_value"); ok {
		patch.DefaultValue, patch.SetDefault = def, true
	}
	return s.mutate(store.OpUpdateVariable, func(st *store.Store) (string, error) {
		return "updated " + id, st.UpdateVariable(id, patch)
	}), nil
}

func (s *Server) handleRemoveVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "variable_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(store.OpRemoveVariable, func(st *store.Store) (string, error) {
		return "removed " + id, st.RemoveVariable(id)
	}), nil
}

func (s *Server) handleBindProp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layerID, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prop, err := requireString(req, "prop")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	variableID, err := requireString(req, "variable_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(store.OpBindPropToVariable, func(st *store.Store) (string, error) {
		return fmt.Sprintf("bound %s.%s to %s", layerID, prop, variableID), st.BindPropToVariable(layerID, prop, variableID)
	}), nil
}

func (s *Server) handleUnbindProp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layerID, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prop, err := requireString(req, "prop")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.mutate(store.OpUnbindPropFromVariable, func(st *store.Store) (string, error) {
		return fmt.Sprintf("unbound %s.%s", layerID, prop), st.UnbindPropFromVariable(layerID, prop)
	}), nil
}

func (s *Server) handleResolveLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "layer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.editor.Resolve(id, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{"id": resolved.ID, "type": resolved.Type, "props": resolved.Props}
	if resolved.Children.Kind == domain.ChildrenText {
		out["text"] = resolved.Children.Text
	}
	return jsonResult(out)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(store.OpUndo, func(st *store.Store) (string, error) {
		if !st.Undo() {
			return "nothing to undo", nil
		}
		return "undone", nil
	}), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(store.OpRedo, func(st *store.Store) (string, error) {
		if !st.Redo() {
			return "nothing to redo", nil
		}
		return "redone", nil
	}), nil
}

func (s *Server) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.editor.Save(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText("saved " + s.editor.DocumentID()), nil
}
