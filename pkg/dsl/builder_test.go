package dsl

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

func TestBuilder_SimpleDocument(t *testing.T) {
	b := New()
	b.Variable("v1", "title", domain.VariableString, "Welcome")

	b.Page("home", "Home").Add(
		Layer("hero", "Flex").Name("Hero").Add(
			Layer("h1", "span").BindChildren("v1"),
			Layer("cta", "Button").Prop("variant", "outline").Bind("label", "v1").Text("Start"),
		),
	)
	b.Page("about", "About")
	b.Select("home", "cta")

	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(doc.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Type != DefaultPageType {
		t.Errorf("Expected page type %q, got %q", DefaultPageType, doc.Pages[0].Type)
	}
	if !doc.Pages[1].Children.IsContainer() {
		t.Errorf("Expected empty pages to be containers")
	}
	if got := tree.CountLayers(doc.Pages[0].Children.Layers); got != 3 {
		t.Errorf("Expected 3 layers under home, got %d", got)
	}

	cta := tree.FindLayer(doc.Pages, "cta")
	if cta == nil {
		t.Fatal("cta not found")
	}
	if !reflect.DeepEqual(cta.Children, domain.TextChildren("Start")) {
		t.Errorf("Expected text children, got %+v", cta.Children)
	}
	if cta.Props["label"] != domain.Ref("v1") {
		t.Errorf("Expected label to reference v1, got %#v", cta.Props["label"])
	}

	h1 := tree.FindLayer(doc.Pages, "h1")
	if h1.Children.Kind != domain.ChildrenVariable || h1.Children.VariableID != "v1" {
		t.Errorf("Expected variable-bound children, got %+v", h1.Children)
	}

	if doc.SelectedPageID != "home" || doc.SelectedLayerID != "cta" {
		t.Errorf("Unexpected selection %q/%q", doc.SelectedPageID, doc.SelectedLayerID)
	}
}

func TestBuilder_Defaults(t *testing.T) {
	b := New().PageType("Page")
	b.Page("p1", "One")
	if same := b.Page("p1", "Ignored"); same.layer.Name != "One" {
		t.Errorf("Expected Page to return the existing builder")
	}

	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if doc.SelectedPageID != "p1" {
		t.Errorf("Expected first page to be selected, got %q", doc.SelectedPageID)
	}
	if doc.Pages[0].Type != "Page" {
		t.Errorf("Expected custom page type, got %q", doc.Pages[0].Type)
	}
	if doc.Variables == nil {
		t.Errorf("Expected a non-nil variable list")
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		is    error
	}{
		{
			name:  "Empty",
			build: New,
			is:    domain.ErrEmptyDocument,
		},
		{
			name: "Invalid variable type",
			build: func() *Builder {
				b := New().Variable("v", "v", domain.VariableType("date"), nil)
				b.Page("p", "P")
				return b
			},
			is: domain.ErrInvalidVariableType,
		},
		{
			name: "Unknown selected page",
			build: func() *Builder {
				b := New().Select("nope", "")
				b.Page("p", "P")
				return b
			},
			is: domain.ErrPageNotFound,
		},
		{
			name: "Selected layer on another page",
			build: func() *Builder {
				b := New().Select("p", "x")
				b.Page("p", "P")
				b.Page("q", "Q").Add(Layer("x", "Button"))
				return b
			},
			is: domain.ErrLayerNotFound,
		},
		{
			name: "Duplicate ids",
			build: func() *Builder {
				b := New()
				b.Page("p", "P").Add(Layer("a", "Button"), Layer("a", "Button"))
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestBuilder_Seed(t *testing.T) {
	store := memory.NewStore()
	b := New()
	b.Page("home", "Home").Add(Layer("a", "Button").Function("onClick", "submit"))

	want, err := b.Seed(context.Background(), store, "site")
	if err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}

	raw, err := store.Load(context.Background(), "site")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	got, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !domain.Equal(want, got) {
		t.Errorf("Seeded document does not round-trip:\nwant %+v\ngot  %+v", want, got)
	}
}
