package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/presentation/outline"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentURI = "arbor://document"
	outlineURI  = "arbor://outline"
	layerPrefix = "arbor://layers/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(documentURI, "Current Document",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)

	s.mcpServer.AddResource(mcp.NewResource(outlineURI, "Document Outline",
		mcp.WithMIMEType("text/markdown"),
	), s.handleOutlineResource)

	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(layerPrefix+"{layerId}", "Layer Subtree"),
		s.handleLayerResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(codec.Encode(s.editor.Document()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleOutlineResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      outlineURI,
			MIMEType: "text/markdown",
			Text:     outline.Markdown(s.editor.Document(), s.editor.DocumentID()),
		},
	}, nil
}

func (s *Server) handleLayerResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, layerPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract layer id from URI: %s", uri)
	}
	layer := tree.FindLayer(s.editor.Document().Pages, id)
	if layer == nil {
		return nil, fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound)
	}
	data, err := json.Marshal(codec.EncodeLayer(layer))
	if err != nil {
		return nil, fmt.Errorf("failed to encode layer: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt("design_page",
		mcp.WithPromptDescription("Guide through building a page from a short brief"),
		mcp.WithArgument("brief",
			mcp.ArgumentDescription("What the page should contain"),
			mcp.RequiredArgument(),
		),
	), s.handleDesignPagePrompt)
}

func (s *Server) handleDesignPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	brief := req.Params.Arguments["brief"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a page for: %s", brief),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a page for this brief: %q. Follow these steps:

1. Call "outline" to see the existing pages and the selection.
2. Call "add_page" with a short name for the new page.
3. Add containers with "add_component_layer", then add components inside them using the returned ids as parent_id.
4. Declare repeated values (titles, prices, labels) with "add_variable" and bind them with "bind_prop".
5. Call "outline" again to check the structure, then "save_document".`, brief),
				},
			},
		},
	}, nil
}
