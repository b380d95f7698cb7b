package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDocumentStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	doc := map[string]any{"pages": []any{map[string]any{"id": "p1"}}}
	require.NoError(t, store.Save(ctx, "doc", doc))

	// Mutating the saved input must not leak into the store.
	doc["pages"].([]any)[0].(map[string]any)["id"] = "changed"

	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "p1", loaded["pages"].([]any)[0].(map[string]any)["id"])

	// Nor must mutating a loaded copy.
	loaded["pages"] = nil
	again, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.NotNil(t, again["pages"])
}
