package store_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() *registry.Components {
	return registry.NewComponents(
		registry.Component{
			Type: "div",
			Props: schema.Schema{
				"className": schema.WithDefault(schema.String(), "page"),
			},
		},
		registry.Component{
			Type: "Button",
			Props: schema.Schema{
				"label":   schema.WithDefault(schema.String(), "Click"),
				"variant": schema.WithDefault(schema.Enum("default", "outline"), "default"),
				"onClick": schema.Optional(schema.Function()),
			},
			DefaultChildren: domain.TextChildren("Button"),
		},
		registry.Component{
			Type:  "Flex",
			Props: schema.Schema{"gap": schema.WithDefault(schema.Number(), 2)},
			DefaultChildren: domain.LayerChildren(
				&domain.Layer{ID: "tpl-1", Type: "span", Name: "Title", Children: domain.TextChildren("Title")},
			),
		},
		registry.Component{
			Type:                    "Greeting",
			Props:                   schema.Schema{"text": schema.Optional(schema.String())},
			DefaultVariableBindings: []registry.VariableBinding{{PropName: "text", VariableID: "v-user"}},
		},
	)
}

func newStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	base := []store.Option{
		store.WithComponents(catalog()),
		store.WithIDGenerator(ids.Sequence("n")),
	}
	return store.New(append(base, opts...)...)
}

func countType(layers []*domain.Layer, typ string) int {
	n := 0
	tree.Walk(layers, func(l *domain.Layer, _ int) bool {
		if l.Type == typ {
			n++
		}
		return true
	})
	return n
}

func TestNew(t *testing.T) {
	s := newStore(t)
	doc := s.Document()

	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, "n1", page.ID)
	assert.Equal(t, store.DefaultPageType, page.Type)
	assert.Equal(t, page.ID, doc.SelectedPageID)
	assert.Empty(t, doc.SelectedLayerID)
	assert.True(t, page.Children.IsContainer())
	assert.Equal(t, domain.Lit("page"), page.Props["className"])
	assert.False(t, s.CanUndo())
}

func TestInitialize(t *testing.T) {
	t.Run("Rejects empty document", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Initialize(domain.Document{}), domain.ErrEmptyDocument)
	})

	t.Run("Repairs selection and clears history", func(t *testing.T) {
		s := newStore(t)
		s.AddPageLayer("Other")
		require.True(t, s.CanUndo())

		page := &domain.Layer{ID: "p", Type: "div", Children: domain.LayerChildren(
			&domain.Layer{ID: "a", Type: "Button"},
		)}
		require.NoError(t, s.Initialize(domain.Document{
			Pages:           []*domain.Layer{page},
			SelectedPageID:  "missing",
			SelectedLayerID: "ghost",
		}))

		doc := s.Document()
		assert.Equal(t, "p", doc.SelectedPageID)
		assert.Empty(t, doc.SelectedLayerID)
		assert.NotNil(t, doc.Variables)
		assert.False(t, s.CanUndo())
		assert.False(t, s.CanRedo())
	})

	t.Run("Keeps a valid selection", func(t *testing.T) {
		s := newStore(t)
		page := &domain.Layer{ID: "p", Type: "div", Children: domain.LayerChildren(
			&domain.Layer{ID: "a", Type: "Button"},
		)}
		require.NoError(t, s.Initialize(domain.Document{
			Pages:           []*domain.Layer{page},
			SelectedPageID:  "p",
			SelectedLayerID: "a",
		}))
		assert.Equal(t, "a", s.Document().SelectedLayerID)
	})
}

func TestAddComponentLayer(t *testing.T) {
	t.Run("Applies registry defaults", func(t *testing.T) {
		s := newStore(t)
		id, err := s.AddComponentLayer("Button", "", tree.AtEnd)
		require.NoError(t, err)

		layer := s.FindLayerByID(id)
		require.NotNil(t, layer)
		assert.Equal(t, "Button", layer.Name)
		assert.Equal(t, domain.Lit("Click"), layer.Props["label"])
		assert.Equal(t, domain.Lit("default"), layer.Props["variant"])
		assert.NotContains(t, layer.Props, "onClick")
		assert.Equal(t, domain.TextChildren("Button"), layer.Children)

		assert.Equal(t, []*domain.Layer{layer}, s.FindLayersForPageID(s.Document().SelectedPageID))
	})

	t.Run("Re-identifies default children on every copy", func(t *testing.T) {
		s := newStore(t)
		first, err := s.AddComponentLayer("Flex", "", tree.AtEnd)
		require.NoError(t, err)
		second, err := s.AddComponentLayer("Flex", "", tree.AtEnd)
		require.NoError(t, err)

		a := s.FindLayerByID(first).Children.Layers[0]
		b := s.FindLayerByID(second).Children.Layers[0]
		assert.NotEqual(t, "tpl-1", a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, "Title", a.Name)
	})

	t.Run("Binds default variables only when they exist", func(t *testing.T) {
		s := newStore(t)
		id, err := s.AddComponentLayer("Greeting", "", tree.AtEnd)
		require.NoError(t, err)
		assert.NotContains(t, s.FindLayerByID(id).Props, "text")

		page := s.Document().Pages[0]
		require.NoError(t, s.Initialize(domain.Document{
			Pages:     []*domain.Layer{page},
			Variables: []domain.Variable{{ID: "v-user", Name: "user", Type: domain.VariableString, DefaultValue: "Ada"}},
		}))
		id, err = s.AddComponentLayer("Greeting", "", tree.AtEnd)
		require.NoError(t, err)
		assert.Equal(t, domain.Ref("v-user"), s.FindLayerByID(id).Props["text"])
	})

	t.Run("Position", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		b, _ := s.AddComponentLayer("Button", "", tree.At(0))
		c, _ := s.AddComponentLayer("Button", "", tree.At(1))

		var got []string
		for _, l := range s.FindLayersForPageID(s.Document().SelectedPageID) {
			got = append(got, l.ID)
		}
		assert.Equal(t, []string{b, c, a}, got)
	})

	t.Run("Unknown parent", func(t *testing.T) {
		s := newStore(t)
		before := s.Document()
		_, err := s.AddComponentLayer("Button", "ghost", tree.AtEnd)
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
		assert.True(t, domain.Equal(before, s.Document()))
		assert.False(t, s.CanUndo())
	})

	t.Run("Text parent is a no-op", func(t *testing.T) {
		s := newStore(t)
		btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		before := s.Document()

		id, err := s.AddComponentLayer("Button", btn, tree.AtEnd)
		require.NoError(t, err)
		assert.Empty(t, id)
		assert.Equal(t, before, s.Document())
	})
}

func TestAddPageLayer(t *testing.T) {
	s := newStore(t)
	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
	require.NoError(t, s.SelectLayer(btn))

	id := s.AddPageLayer("About")
	doc := s.Document()
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, id, doc.SelectedPageID)
	assert.Empty(t, doc.SelectedLayerID)
	assert.Equal(t, "About", doc.Pages[1].Name)
	assert.True(t, doc.Pages[1].Children.IsContainer())
}

func TestDuplicateThenRemove(t *testing.T) {
	s := newStore(t)
	a, err := s.AddComponentLayer("Button", "", tree.AtEnd)
	require.NoError(t, err)

	copyID, err := s.DuplicateLayer(a)
	require.NoError(t, err)
	require.NoError(t, s.RemoveLayer(a))

	layers := s.FindLayersForPageID(s.Document().SelectedPageID)
	require.Len(t, layers, 1)
	assert.Equal(t, 1, countType(s.Document().Pages, "Button"))
	assert.Equal(t, copyID, layers[0].ID)
	assert.Equal(t, "Button (Copy)", layers[0].Name)
}

func TestDuplicateLayer(t *testing.T) {
	t.Run("Sibling goes right after the original", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		b, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		dup, err := s.DuplicateLayer(a)
		require.NoError(t, err)

		var got []string
		for _, l := range s.FindLayersForPageID(s.Document().SelectedPageID) {
			got = append(got, l.ID)
		}
		assert.Equal(t, []string{a, dup, b}, got)
	})

	t.Run("Page copies become selected", func(t *testing.T) {
		s := newStore(t)
		page := s.Document().SelectedPageID
		dup, err := s.DuplicateLayer(page)
		require.NoError(t, err)

		doc := s.Document()
		require.Len(t, doc.Pages, 2)
		assert.Equal(t, dup, doc.SelectedPageID)
		assert.Equal(t, "Page 1 (Copy)", doc.Pages[1].Name)
	})

	t.Run("Unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.DuplicateLayer("ghost")
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
	})
}

func TestRemoveLayer(t *testing.T) {
	t.Run("Last page is refused", func(t *testing.T) {
		s := newStore(t)
		err := s.RemoveLayer(s.Document().SelectedPageID)
		assert.ErrorIs(t, err, domain.ErrLastPage)
		assert.Len(t, s.Document().Pages, 1)
	})

	t.Run("Removing the selected page selects the first one", func(t *testing.T) {
		s := newStore(t)
		first := s.Document().SelectedPageID
		second := s.AddPageLayer("Two")
		s.AddPageLayer("Three")
		require.NoError(t, s.SelectPage(second))

		require.NoError(t, s.RemoveLayer(second))
		doc := s.Document()
		assert.Len(t, doc.Pages, 2)
		assert.Equal(t, first, doc.SelectedPageID)
	})

	t.Run("Removing an ancestor clears the selection", func(t *testing.T) {
		s := newStore(t)
		flex, _ := s.AddComponentLayer("Flex", "", tree.AtEnd)
		inner, _ := s.AddComponentLayer("Button", flex, tree.AtEnd)
		require.NoError(t, s.SelectLayer(inner))

		require.NoError(t, s.RemoveLayer(flex))
		assert.Empty(t, s.Document().SelectedLayerID)
	})

	t.Run("Removing an unrelated layer keeps the selection", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		b, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		require.NoError(t, s.SelectLayer(a))

		require.NoError(t, s.RemoveLayer(b))
		assert.Equal(t, a, s.Document().SelectedLayerID)
	})

	t.Run("Unknown id", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.RemoveLayer("ghost"), domain.ErrLayerNotFound)
		assert.False(t, s.CanUndo())
	})
}

func TestMoveLayer(t *testing.T) {
	s := newStore(t)
	flex, _ := s.AddComponentLayer("Flex", "", tree.AtEnd)
	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
	moved := s.FindLayerByID(btn)

	require.NoError(t, s.MoveLayer(btn, flex, tree.At(0)))
	parent := s.FindLayerByID(flex)
	assert.Same(t, moved, parent.Children.Layers[0], "moved subtree keeps its identity")
	assert.Len(t, s.FindLayersForPageID(s.Document().SelectedPageID), 1)

	t.Run("Into own subtree", func(t *testing.T) {
		title := parent.Children.Layers[1].ID
		assert.ErrorIs(t, s.MoveLayer(flex, title, tree.AtEnd), domain.ErrInvalidMove)
	})

	t.Run("Unknown source", func(t *testing.T) {
		assert.ErrorIs(t, s.MoveLayer("ghost", flex, tree.AtEnd), domain.ErrLayerNotFound)
	})

	t.Run("Unknown target", func(t *testing.T) {
		assert.ErrorIs(t, s.MoveLayer(btn, "ghost", tree.AtEnd), domain.ErrLayerNotFound)
	})

	t.Run("Back to the page", func(t *testing.T) {
		require.NoError(t, s.MoveLayer(btn, "", tree.AtEnd))
		assert.Len(t, s.FindLayersForPageID(s.Document().SelectedPageID), 2)
	})
}

func TestUpdateLayer(t *testing.T) {
	t.Run("Merges props and applies the patch", func(t *testing.T) {
		s := newStore(t)
		btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		name := "Submit"

		require.NoError(t, s.UpdateLayer(btn, domain.Props{"label": domain.Lit("Send")}, &domain.LayerPatch{Name: &name}))
		layer := s.FindLayerByID(btn)
		assert.Equal(t, "Submit", layer.Name)
		assert.Equal(t, domain.Lit("Send"), layer.Props["label"])
		assert.Equal(t, domain.Lit("default"), layer.Props["variant"], "other props are kept")
	})

	t.Run("Selected page itself", func(t *testing.T) {
		s := newStore(t)
		page := s.Document().SelectedPageID
		children := domain.LayerChildren(&domain.Layer{ID: "x", Type: "span", Children: domain.TextChildren("hi")})

		require.NoError(t, s.UpdateLayer(page, domain.Props{"className": domain.Lit("wide")}, &domain.LayerPatch{Children: &children}))
		updated := s.FindLayerByID(page)
		assert.Equal(t, domain.Lit("wide"), updated.Props["className"])
		assert.Equal(t, "x", updated.Children.Layers[0].ID)
	})

	t.Run("Layers outside the selected page are not found", func(t *testing.T) {
		s := newStore(t)
		btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		s.AddPageLayer("Other")

		err := s.UpdateLayer(btn, domain.Props{"label": domain.Lit("x")}, nil)
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
	})

	t.Run("Identical result creates no history entry", func(t *testing.T) {
		var events int
		s := newStore(t, store.WithHooks(domain.Hooks{
			OnChange: func(context.Context, *domain.ChangeEvent) { events++ },
		}))
		btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
		before := events

		require.NoError(t, s.UpdateLayer(btn, domain.Props{"label": domain.Lit("Click")}, nil))
		assert.Equal(t, before, events, "no hook for a no-op update")
		require.True(t, s.Undo())
		assert.False(t, s.CanUndo(), "only the add was recorded")
	})
}

func TestSelection(t *testing.T) {
	s := newStore(t)
	first := s.Document().SelectedPageID
	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
	second := s.AddPageLayer("Two")

	require.NoError(t, s.SelectLayer(btn))
	doc := s.Document()
	assert.Equal(t, first, doc.SelectedPageID, "selecting a layer switches to its page")
	assert.Equal(t, btn, doc.SelectedLayerID)

	require.NoError(t, s.SelectLayer(""))
	assert.Empty(t, s.Document().SelectedLayerID)

	require.NoError(t, s.SelectLayer(second))
	assert.Equal(t, second, s.Document().SelectedPageID)

	assert.ErrorIs(t, s.SelectLayer("ghost"), domain.ErrLayerNotFound)
	assert.ErrorIs(t, s.SelectPage("ghost"), domain.ErrPageNotFound)
	assert.ErrorIs(t, s.SelectPage(btn), domain.ErrPageNotFound)
}

func TestUndoRedo(t *testing.T) {
	s := newStore(t)
	flex, _ := s.AddComponentLayer("Flex", "", tree.AtEnd)
	vid, _ := s.AddVariable("title", domain.VariableString, "Hello")

	mutations := []struct {
		name string
		run  func(t *testing.T)
	}{
		{"add", func(t *testing.T) {
			_, err := s.AddComponentLayer("Button", flex, tree.AtEnd)
			require.NoError(t, err)
		}},
		{"page", func(t *testing.T) { s.AddPageLayer("Two") }},
		{"duplicate", func(t *testing.T) {
			_, err := s.DuplicateLayer(flex)
			require.NoError(t, err)
		}},
		{"update", func(t *testing.T) {
			require.NoError(t, s.UpdateLayer(flex, domain.Props{"gap": domain.Lit(8)}, nil))
		}},
		{"bind", func(t *testing.T) {
			require.NoError(t, s.BindPropToVariable(flex, "title", vid))
		}},
		{"remove variable", func(t *testing.T) {
			require.NoError(t, s.RemoveVariable(vid))
		}},
		{"remove", func(t *testing.T) {
			require.NoError(t, s.RemoveLayer(flex))
		}},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			require.NoError(t, s.SelectPage(s.Document().Pages[0].ID))
			before := s.Document()
			m.run(t)
			after := s.Document()
			require.False(t, domain.Equal(before, after))

			require.True(t, s.Undo())
			assert.True(t, domain.Equal(before, s.Document()), "undo restores the pre-mutation state")
			require.True(t, s.CanRedo())
			require.True(t, s.Redo())
			assert.True(t, domain.Equal(after, s.Document()), "redo restores the post-mutation state")
		})
	}

	t.Run("New mutation clears redo", func(t *testing.T) {
		require.True(t, s.Undo())
		require.True(t, s.CanRedo())
		s.AddPageLayer("Three")
		assert.False(t, s.CanRedo())
	})

	t.Run("Empty stacks", func(t *testing.T) {
		fresh := newStore(t)
		assert.False(t, fresh.Undo())
		assert.False(t, fresh.Redo())
	})
}

func TestHistoryLimit(t *testing.T) {
	s := newStore(t, store.WithHistoryLimit(2))
	for i := 0; i < 5; i++ {
		s.AddPageLayer("p")
	}
	assert.True(t, s.Undo())
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
	assert.Len(t, s.Document().Pages, 4)
}

func TestHooks(t *testing.T) {
	var events []*domain.ChangeEvent
	s := newStore(t, store.WithHooks(domain.Hooks{
		OnChange: func(_ context.Context, e *domain.ChangeEvent) { events = append(events, e) },
	}))

	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
	require.NoError(t, s.RemoveLayer(btn))
	s.Undo()

	require.Len(t, events, 3)
	assert.Equal(t, store.OpAddComponentLayer, events[0].Operation)
	assert.Equal(t, store.OpRemoveLayer, events[1].Operation)
	assert.Equal(t, store.OpUndo, events[2].Operation)
	for _, e := range events {
		assert.Equal(t, domain.EventDocumentChanged, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.NotNil(t, tree.FindLayer(events[1].Previous.Pages, btn))
	assert.Nil(t, tree.FindLayer(events[1].Document.Pages, btn))

	require.NoError(t, s.Initialize(s.Document()))
	assert.Equal(t, domain.EventDocumentLoaded, events[len(events)-1].Type)
}

func TestStructuralSharing(t *testing.T) {
	s := newStore(t)
	flex, _ := s.AddComponentLayer("Flex", "", tree.AtEnd)
	other := s.AddPageLayer("Other")
	otherBefore := s.FindLayerByID(other)
	flexBefore := s.FindLayerByID(flex)

	require.NoError(t, s.SelectPage(other))
	_, err := s.AddComponentLayer("Button", "", tree.AtEnd)
	require.NoError(t, err)

	assert.Same(t, flexBefore, s.FindLayerByID(flex), "untouched pages are shared")
	assert.NotSame(t, otherBefore, s.FindLayerByID(other))
	assert.Empty(t, otherBefore.Children.Layers, "previous snapshot is not mutated")
}
