package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks, on save, literal
// prop values whose key matches one of the patterns, and the default value of
// variables whose name matches. Variable references are kept.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, id string, doc map[string]any) error {
	cloned := deepCopyMap(doc)

	if pages, ok := cloned["pages"].([]any); ok {
		for _, p := range pages {
			m.maskLayer(p)
		}
	}
	if vars, ok := cloned["variables"].([]any); ok {
		for _, v := range vars {
			if vm, ok := v.(map[string]any); ok {
				if name, _ := vm["name"].(string); m.matches(name) {
					vm["defaultValue"] = Mask
				}
			}
		}
	}
	return m.next.Save(ctx, id, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (map[string]any, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) maskLayer(raw any) {
	layer, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if props, ok := layer["props"].(map[string]any); ok {
		m.maskProps(props)
	}
	if kids, ok := layer["children"].([]any); ok {
		for _, c := range kids {
			m.maskLayer(c)
		}
	}
}

func (m *redactMiddleware) maskProps(props map[string]any) {
	for k, v := range props {
		sub, isMap := v.(map[string]any)
		if isMap {
			if _, isRef := sub[domain.VariableRefKey]; isRef {
				continue
			}
		}
		if m.matches(k) {
			props[k] = Mask
			continue
		}
		if isMap {
			m.maskProps(sub)
		}
	}
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
