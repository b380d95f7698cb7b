package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	ports.RunDocumentStoreContract(t, New(repo, dir))
}

func TestStore_Layout(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	store := New(repo, dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "home", map[string]any{"version": 4, "selectedPageId": "p1"}))

	_, err := os.Stat(filepath.Join(dir, "home.json"))
	require.NoError(t, err, "document should be a json file in the repository root")

	// Unrelated files are not documents.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes"), 0o644))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)
}

func TestStore_ReadHeader(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	store := New(repo, dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "home", map[string]any{
		"version":        4,
		"selectedPageId": "p1",
		"pages":          []any{},
	}))

	h, err := store.ReadHeader(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, 4, h.Version)
	assert.Equal(t, "p1", h.SelectedPageID)
}

func TestStore_InvalidID(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	store := New(repo, dir)

	err := store.Save(context.Background(), "../escape", map[string]any{})
	assert.Error(t, err)
}
