package migrate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v1Document() map[string]any {
	return map[string]any{
		"pages": []any{
			map[string]any{
				"id":   "page1",
				"type": "div",
				"name": "Home",
				"props": map[string]any{
					"mode":       "dark",
					"colorTheme": "blue",
					"data-theme": "green",
					"className":  "p-4",
				},
				"children": []any{
					map[string]any{"id": "t1", "type": "_text_", "name": "Heading", "text": "Hello", "props": map[string]any{}},
					map[string]any{"id": "t2", "type": "_text_", "text": "# Title", "textType": "markdown"},
					map[string]any{
						"id":   "f1",
						"type": "Flex",
						"children": []any{
							map[string]any{"id": "t3", "type": "_text_"},
						},
					},
				},
			},
		},
		"selectedPageId":  "page1",
		"selectedLayerId": nil,
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want int
	}{
		{"absent", map[string]any{}, 1},
		{"int", map[string]any{"version": 3}, 3},
		{"float", map[string]any{"version": 2.0}, 2},
		{"fraction", map[string]any{"version": 2.5}, 1},
		{"json number", map[string]any{"version": json.Number("4")}, 4},
		{"string", map[string]any{"version": "3"}, 1},
		{"zero", map[string]any{"version": 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Version(tt.raw))
		})
	}
}

func TestTextLayersToSpans(t *testing.T) {
	doc := textLayersToSpans(deepCopy(v1Document()).(map[string]any))
	children := doc["pages"].([]any)[0].(map[string]any)["children"].([]any)

	t1 := children[0].(map[string]any)
	assert.Equal(t, "span", t1["type"])
	assert.Equal(t, "Hello", t1["children"])
	assert.Equal(t, "Heading", t1["name"])
	assert.NotContains(t, t1, "text")

	t2 := children[1].(map[string]any)
	assert.Equal(t, "Markdown", t2["type"])
	assert.Equal(t, "# Title", t2["children"])
	assert.NotContains(t, t2, "textType")

	t3 := children[2].(map[string]any)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "span", t3["type"])
	assert.Equal(t, "", t3["children"])
}

func TestNamespacePageTheme(t *testing.T) {
	doc := namespacePageTheme(deepCopy(v1Document()).(map[string]any))
	props := doc["pages"].([]any)[0].(map[string]any)["props"].(map[string]any)

	assert.Equal(t, map[string]any{
		"data-mode":  "dark",
		"data-theme": "green",
		"className":  "p-4",
	}, props)
}

func TestAddVariables(t *testing.T) {
	doc := addVariables(map[string]any{})
	assert.Equal(t, []any{}, doc["variables"])

	existing := []any{map[string]any{"id": "v1"}}
	doc = addVariables(map[string]any{"variables": existing})
	assert.Equal(t, existing, doc["variables"])
}

func TestMigrate_FromV1(t *testing.T) {
	raw := v1Document()
	out := Migrate(raw)

	assert.Equal(t, CurrentVersion, out["version"])
	assert.Equal(t, []any{}, out["variables"])

	// Input untouched.
	assert.NotContains(t, raw, "version")
	firstChild := raw["pages"].([]any)[0].(map[string]any)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "_text_", firstChild["type"])
}

func TestMigrate_Idempotent(t *testing.T) {
	once := Migrate(v1Document())
	twice := Migrate(Migrate(v1Document()))
	assert.Equal(t, once, twice)
}

func TestMigrate_CurrentIsIdentity(t *testing.T) {
	raw := map[string]any{"version": CurrentVersion, "pages": []any{}, "variables": []any{}}
	out := Migrate(raw)
	out["marker"] = true
	assert.Equal(t, true, raw["marker"], "current documents are passed through as-is")

	newer := map[string]any{"version": CurrentVersion + 3}
	assert.Equal(t, newer, Migrate(newer))
}

func TestMigrate_PartialChain(t *testing.T) {
	raw := map[string]any{
		"version": 3,
		"pages":   []any{map[string]any{"id": "p", "type": "_text_", "props": map[string]any{"mode": "x"}}},
	}
	out := Migrate(raw)
	page := out["pages"].([]any)[0].(map[string]any)
	// Steps before version 3 are skipped.
	assert.Equal(t, "_text_", page["type"])
	assert.Equal(t, "x", page["props"].(map[string]any)["mode"])
	assert.Equal(t, []any{}, out["variables"])
}

func TestMigrate_Total(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{"pages": "not a list"},
		{"pages": []any{"junk", 42, map[string]any{"props": "nope"}}},
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			out := Migrate(in)
			assert.Equal(t, CurrentVersion, out["version"])
		})
	}
}

func TestSteps(t *testing.T) {
	all := Steps()
	require.Len(t, all, CurrentVersion-1)
	for i, step := range all {
		assert.NotNil(t, step, "step %d", i+1)
	}

	_, ok := StepFrom(0)
	assert.False(t, ok)
	_, ok = StepFrom(CurrentVersion)
	assert.False(t, ok)
	step, ok := StepFrom(3)
	require.True(t, ok)
	assert.Contains(t, step(map[string]any{}), "variables")
}
