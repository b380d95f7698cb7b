package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
store:
  backend: memory
page_type: section
history_limit: 20
autosave: 500ms
components:
  - type: section
    container: true
  - type: Heading
    props:
      level: number
      tone: enum(muted|strong)?
    defaults:
      level: 1
    text: Title
  - type: Price
    props:
      amount: number
    bindings:
      amount: var_price
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, ".", cfg.Store.Dir, "unset fields keep their defaults")
	assert.Equal(t, "section", cfg.PageType)
	require.NotNil(t, cfg.HistoryLimit)
	assert.Equal(t, 20, *cfg.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave)
	assert.Len(t, cfg.Components, 3)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "store: ["},
		{"unknown key", "colour: red"},
		{"unknown backend", "store:\n  backend: mongo"},
		{"missing type", "components:\n  - props: {a: string}"},
		{"duplicate type", "components:\n  - type: A\n  - type: A"},
		{"bad duration", "autosave: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestComponentRegistry(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	reg, err := cfg.ComponentRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"Heading", "Price", "section"}, reg.Types())

	heading, ok := reg.Lookup("Heading")
	require.True(t, ok)
	assert.Equal(t, domain.TextChildren("Title"), heading.DefaultChildren)

	v, ok := reg.DefaultValue("Heading", "level")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, reg.HasField("Heading", "tone"))

	section, _ := reg.Lookup("section")
	assert.True(t, section.DefaultChildren.AcceptsLayers())

	price, _ := reg.Lookup("Price")
	assert.Equal(t, "var_price", price.DefaultVariableBindings[0].VariableID)
}

func TestComponentRegistry_Invalid(t *testing.T) {
	cfg := Default()
	text := "x"
	cfg.Components = []ComponentConfig{
		{Type: "A", Props: map[string]string{"n": "date"}},
		{Type: "B", Props: map[string]string{"n": "number"}, Defaults: map[string]any{"n": "one"}},
		{Type: "C", Text: &text, Container: true},
	}
	_, err := cfg.ComponentRegistry()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component A")
	assert.Contains(t, err.Error(), "component B")
	assert.Contains(t, err.Error(), "component C")
}

func TestComponentRegistry_Defaults(t *testing.T) {
	reg, err := Default().ComponentRegistry()
	require.NoError(t, err)
	_, ok := reg.Lookup("div")
	assert.True(t, ok)
}

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	assert.Equal(t, path, Find(dir))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "section", cfg.PageType)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	doc := map[string]any{"version": 4, "pages": []any{}}

	t.Run("file", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Dir = t.TempDir()
		cfg.Store.Format = "yaml"
		b, err := cfg.OpenBackend(nil, nil)
		require.NoError(t, err)
		defer b.Close()

		assert.NotNil(t, b.Watcher)
		require.NoError(t, b.Store.Save(ctx, "site", doc))
		assert.FileExists(t, filepath.Join(cfg.Store.Dir, "site.yaml"))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = BackendSQLite
		cfg.Store.Dir = t.TempDir()
		b, err := cfg.OpenBackend(nil, nil)
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Store.Save(ctx, "site", doc))
		assert.FileExists(t, filepath.Join(cfg.Store.Dir, "arbor.db"))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := Default()
		cfg.Store.Backend = BackendRedis
		cfg.Redis.Addr = mr.Addr()
		b, err := cfg.OpenBackend(nil, nil)
		require.NoError(t, err)
		defer b.Close()

		assert.NotNil(t, b.Locker)
		require.NoError(t, b.Store.Save(ctx, "site", doc))
		ids, err := b.Store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"site"}, ids)
	})

	t.Run("encrypted and metered", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Dir = t.TempDir()
		cfg.EncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		reg := prometheus.NewRegistry()
		b, err := cfg.OpenBackend(nil, reg)
		require.NoError(t, err)

		require.NoError(t, b.Store.Save(ctx, "site", doc))
		raw, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "site.json"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), "__encrypted__")

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = BackendMemory
		cfg.EncryptionKey = "short"
		_, err := cfg.OpenBackend(nil, nil)
		assert.ErrorContains(t, err, "encryption_key")
	})
}

func TestEditorOptions(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	b, err := cfg.OpenBackend(nil, nil)
	require.NoError(t, err)

	opts, err := cfg.EditorOptions(b, nil)
	require.NoError(t, err)
	editor := arbor.New(opts...)

	created, err := editor.Open(context.Background(), "site")
	require.NoError(t, err)
	assert.True(t, created)

	var id string
	require.NoError(t, editor.Update(func(s *store.Store) error {
		s.AddPageLayer("Landing")
		id, err = s.AddComponentLayer("Heading", "", tree.AtEnd)
		return err
	}))
	require.NotEmpty(t, id)

	doc := editor.Document()
	assert.Equal(t, "section", doc.SelectedPage().Type)
	heading := doc.SelectedPage().Children.Layers[0]
	assert.Equal(t, "Title", heading.Children.Text)
	assert.Equal(t, domain.Lit(1), heading.Props["level"])
}
