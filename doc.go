/*
Package arbor is an editing engine for trees of typed component layers, the
document model behind visual page builders.

A document holds pages. Each page is a layer whose children are either more
layers, literal text or a reference to a variable. Props are literals or
references to document variables, which keeps a value in one place while many
layers display it.

# Concept

The engine owns the data model and its mutations. Every mutation derives a new
immutable snapshot that shares untouched subtrees with the previous one, and
commits it through an undo/redo history. Rendering and the component catalog
are collaborators: the catalog is consumed through registry.ComponentLookup,
and rendering reads resolved props from the variables package.

Persisted documents carry a version and are migrated forward when loaded, so
old files open in new builds.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/adapters/file"
		"github.com/aretw0/arbor/pkg/store"
		"github.com/aretw0/arbor/pkg/tree"
	)

	func main() {
		ctx := context.Background()
		docs := file.New("./documents")
		editor := arbor.New(arbor.WithDocumentStore(docs), arbor.WithAutosave(0))
		if _, err := editor.Open(ctx, "landing"); err != nil {
			log.Fatal(err)
		}
		defer editor.Close(ctx)

		err := editor.Update(func(s *store.Store) error {
			_, err := s.AddComponentLayer("Button", "", tree.AtEnd)
			return err
		})
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package arbor
