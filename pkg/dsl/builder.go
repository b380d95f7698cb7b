package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/tree"
)

// DefaultPageType is the component type used for pages.
const DefaultPageType = "div"

// Builder manages the document construction.
type Builder struct {
	pageType      string
	pages         []*LayerBuilder
	variables     []domain.Variable
	selectedPage  string
	selectedLayer string
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{pageType: DefaultPageType}
}

// PageType changes the type of pages added afterwards.
func (b *Builder) PageType(typ string) *Builder {
	b.pageType = typ
	return b
}

// Page adds a page. If a page with the same id exists, it returns its builder.
func (b *Builder) Page(id, name string) *LayerBuilder {
	for _, p := range b.pages {
		if p.layer.ID == id {
			return p
		}
	}
	p := Layer(id, b.pageType).Name(name).Add()
	b.pages = append(b.pages, p)
	return p
}

// Variable declares a variable.
func (b *Builder) Variable(id, name string, typ domain.VariableType, defaultValue any) *Builder {
	b.variables = append(b.variables, domain.Variable{ID: id, Name: name, Type: typ, DefaultValue: defaultValue})
	return b
}

// Select sets the selection cursor. Empty ids keep the defaults: first page,
// no layer.
func (b *Builder) Select(pageID, layerID string) *Builder {
	b.selectedPage = pageID
	b.selectedLayer = layerID
	return b
}

// Build assembles the document. It fails on an empty document, duplicate
// layer ids, invalid variable types or a selection outside the document.
func (b *Builder) Build() (domain.Document, error) {
	if len(b.pages) == 0 {
		return domain.Document{}, domain.ErrEmptyDocument
	}

	doc := domain.Document{
		Pages:           make([]*domain.Layer, len(b.pages)),
		SelectedPageID:  b.selectedPage,
		SelectedLayerID: b.selectedLayer,
		Variables:       append([]domain.Variable{}, b.variables...),
	}
	for i, p := range b.pages {
		doc.Pages[i] = p.Build()
	}
	if doc.SelectedPageID == "" {
		doc.SelectedPageID = doc.Pages[0].ID
	}

	seen := make(map[string]bool)
	var dup string
	tree.Walk(doc.Pages, func(l *domain.Layer, _ int) bool {
		if seen[l.ID] && dup == "" {
			dup = l.ID
		}
		seen[l.ID] = true
		return true
	})
	if dup != "" {
		return domain.Document{}, fmt.Errorf("duplicate layer id %q", dup)
	}

	for _, v := range doc.Variables {
		if !v.Type.Valid() {
			return domain.Document{}, fmt.Errorf("variable %q: %w", v.ID, domain.ErrInvalidVariableType)
		}
	}

	page, ok := doc.Page(doc.SelectedPageID)
	if !ok {
		return domain.Document{}, fmt.Errorf("selected page %q: %w", doc.SelectedPageID, domain.ErrPageNotFound)
	}
	if doc.SelectedLayerID != "" && (doc.SelectedLayerID == page.ID || !tree.Contains(page, doc.SelectedLayerID)) {
		return domain.Document{}, fmt.Errorf("selected layer %q: %w", doc.SelectedLayerID, domain.ErrLayerNotFound)
	}
	return doc, nil
}

// Seed builds the document and saves its persisted form under id.
func (b *Builder) Seed(ctx context.Context, store ports.DocumentStore, id string) (domain.Document, error) {
	doc, err := b.Build()
	if err != nil {
		return domain.Document{}, err
	}
	if err := store.Save(ctx, id, codec.Encode(doc)); err != nil {
		return domain.Document{}, fmt.Errorf("failed to seed document %s: %w", id, err)
	}
	return doc, nil
}
