package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-doc-" + time.Now().Format("20060102150405")

	sample := func(name string) map[string]any {
		return map[string]any{
			"version": 4,
			"pages": []any{
				map[string]any{
					"id":    "page001",
					"type":  "div",
					"name":  name,
					"props": map[string]any{"className": "p-4"},
					"children": []any{
						map[string]any{"id": "btn0001", "type": "Button", "props": map[string]any{}, "children": "Go"},
					},
				},
			},
			"selectedPageId":  "page001",
			"selectedLayerId": nil,
			"variables":       []any{map[string]any{"id": "v1", "name": "n", "type": "number", "defaultValue": 42}},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, sample("Home")), "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "page001", loaded["selectedPageId"])

		pages, ok := loaded["pages"].([]any)
		require.True(t, ok, "pages should decode as a list, got %T", loaded["pages"])
		page := pages[0].(map[string]any)
		assert.Equal(t, "Home", page["name"])
		// Numbers may come back as any numeric type depending on the backend.
		vars := loaded["variables"].([]any)
		assert.NotNil(t, vars[0].(map[string]any)["defaultValue"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, sample("Renamed")))
		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		page := loaded["pages"].([]any)[0].(map[string]any)
		assert.Equal(t, "Renamed", page["name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, sample("Home")))
		require.NoError(t, store.Delete(ctx, docID), "Delete should not return error")

		_, err := store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, id1, sample("One")))
		require.NoError(t, store.Save(ctx, id2, sample("Two")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
