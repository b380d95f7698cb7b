package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
)

// ExampleNew builds a page with a bound button and resolves its props.
func ExampleNew() {
	components := registry.NewComponents(registry.Component{
		Type:            "Button",
		Props:           schema.Schema{"label": schema.WithDefault(schema.String(), "Click")},
		DefaultChildren: domain.TextChildren("Button"),
	})
	editor := arbor.New(arbor.WithComponents(components))

	var buttonID string
	err := editor.Update(func(s *store.Store) error {
		varID, err := s.AddVariable("cta", domain.VariableString, "Buy now")
		if err != nil {
			return err
		}
		buttonID, err = s.AddComponentLayer("Button", "", tree.AtEnd)
		if err != nil {
			return err
		}
		return s.BindPropToVariable(buttonID, "label", varID)
	})
	if err != nil {
		log.Fatal(err)
	}

	resolved, err := editor.Resolve(buttonID, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resolved.Props["label"])
	fmt.Println(resolved.Children.Text)
	// Output:
	// Buy now
	// Button
}

// ExampleEditor_Open persists a document and opens it again.
func ExampleEditor_Open() {
	ctx := context.Background()
	first := arbor.New()
	if _, err := first.Open(ctx, "site"); err != nil {
		log.Fatal(err)
	}
	_ = first.Update(func(s *store.Store) error {
		s.AddPageLayer("About")
		return nil
	})
	if err := first.Save(ctx); err != nil {
		log.Fatal(err)
	}

	second := arbor.New(arbor.WithDocumentStore(first.Sessions().Store()))
	created, err := second.Open(ctx, "site")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(created, len(second.Document().Pages))
	// Output:
	// false 2
}
