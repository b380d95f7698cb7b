package migrate

const (
	legacyTextType = "_text_"
	textTypeKey    = "textType"
	textKey        = "text"
)

// pageThemeKeys renames page-level style props into the data- namespace.
var pageThemeKeys = [][2]string{
	{"mode", "data-mode"},
	{"colorTheme", "data-theme"},
	{"borderRadius", "data-border-radius"},
}

// textLayersToSpans collapses the dedicated text layer kind into a generic
// span (or Markdown) layer with string children.
func textLayersToSpans(doc map[string]any) map[string]any {
	eachLayer(doc, func(layer map[string]any) {
		if layer["type"] != legacyTextType {
			return
		}
		layer["type"] = "span"
		if layer[textTypeKey] == "markdown" {
			layer["type"] = "Markdown"
		}
		text, _ := layer[textKey].(string)
		layer["children"] = text
		delete(layer, textKey)
		delete(layer, textTypeKey)
	})
	return doc
}

// namespacePageTheme moves theme props of every page to data- keys.
// An existing data- key keeps its value.
func namespacePageTheme(doc map[string]any) map[string]any {
	pages, _ := doc["pages"].([]any)
	for _, p := range pages {
		page, ok := p.(map[string]any)
		if !ok {
			continue
		}
		props, ok := page["props"].(map[string]any)
		if !ok {
			continue
		}
		for _, pair := range pageThemeKeys {
			oldKey, newKey := pair[0], pair[1]
			val, exists := props[oldKey]
			if !exists {
				continue
			}
			if _, taken := props[newKey]; !taken {
				props[newKey] = val
			}
			delete(props, oldKey)
		}
	}
	return doc
}

// addVariables introduces the variable list.
func addVariables(doc map[string]any) map[string]any {
	if _, ok := doc["variables"]; !ok {
		doc["variables"] = []any{}
	}
	return doc
}

// eachLayer calls fn for every layer map reachable from pages, pre-order.
func eachLayer(doc map[string]any, fn func(map[string]any)) {
	pages, _ := doc["pages"].([]any)
	walkLayers(pages, fn)
}

func walkLayers(layers []any, fn func(map[string]any)) {
	for _, l := range layers {
		layer, ok := l.(map[string]any)
		if !ok {
			continue
		}
		fn(layer)
		if children, ok := layer["children"].([]any); ok {
			walkLayers(children, fn)
		}
	}
}
