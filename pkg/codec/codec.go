package codec

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/migrate"
	"github.com/mitchellh/mapstructure"
)

// Persisted document keys.
const (
	KeyVersion         = "version"
	KeyPages           = "pages"
	KeySelectedPageID  = "selectedPageId"
	KeySelectedLayerID = "selectedLayerId"
	KeyVariables       = "variables"
)

// documentDTO mirrors the persisted document shape.
type documentDTO struct {
	Version         int           `mapstructure:"version"`
	Pages           []any         `mapstructure:"pages"`
	SelectedPageID  string        `mapstructure:"selectedPageId"`
	SelectedLayerID *string       `mapstructure:"selectedLayerId"`
	Variables       []variableDTO `mapstructure:"variables"`
}

type layerDTO struct {
	ID       string         `mapstructure:"id"`
	Type     string         `mapstructure:"type"`
	Name     string         `mapstructure:"name"`
	Props    map[string]any `mapstructure:"props"`
	Children any            `mapstructure:"children"`
}

type variableDTO struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Type         string `mapstructure:"type"`
	DefaultValue any    `mapstructure:"defaultValue"`
}

// Encode converts doc into its persisted map form at the current version.
func Encode(doc domain.Document) map[string]any {
	pages := make([]any, len(doc.Pages))
	for i, p := range doc.Pages {
		pages[i] = EncodeLayer(p)
	}

	vars := make([]any, len(doc.Variables))
	for i, v := range doc.Variables {
		vars[i] = map[string]any{
			"id":           v.ID,
			"name":         v.Name,
			"type":         string(v.Type),
			"defaultValue": v.DefaultValue,
		}
	}

	var selectedLayer any
	if doc.SelectedLayerID != "" {
		selectedLayer = doc.SelectedLayerID
	}

	return map[string]any{
		KeyVersion:         migrate.CurrentVersion,
		KeyPages:           pages,
		KeySelectedPageID:  doc.SelectedPageID,
		KeySelectedLayerID: selectedLayer,
		KeyVariables:       vars,
	}
}

// EncodeLayer converts a subtree into plain maps.
func EncodeLayer(l *domain.Layer) map[string]any {
	out := map[string]any{
		"id":    l.ID,
		"type":  l.Type,
		"props": l.Props.ToMap(),
	}
	if l.Name != "" {
		out["name"] = l.Name
	}
	switch l.Children.Kind {
	case domain.ChildrenLayers:
		kids := make([]any, len(l.Children.Layers))
		for i, c := range l.Children.Layers {
			kids[i] = EncodeLayer(c)
		}
		out["children"] = kids
	case domain.ChildrenText:
		out["children"] = l.Children.Text
	case domain.ChildrenVariable:
		out["children"] = map[string]any{domain.VariableRefKey: l.Children.VariableID}
	}
	return out
}

// Decode migrates raw to the current version and converts it into a Document.
func Decode(raw map[string]any) (domain.Document, error) {
	migrated := migrate.Migrate(normalize(raw).(map[string]any))

	var dto documentDTO
	if err := mapstructure.Decode(migrated, &dto); err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := domain.Document{SelectedPageID: dto.SelectedPageID}
	if dto.SelectedLayerID != nil {
		doc.SelectedLayerID = *dto.SelectedLayerID
	}

	for i, p := range dto.Pages {
		page, err := DecodeLayer(p)
		if err != nil {
			return domain.Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		doc.Pages = append(doc.Pages, page)
	}

	for _, v := range dto.Variables {
		typ, err := domain.ParseVariableType(v.Type)
		if err != nil {
			return domain.Document{}, fmt.Errorf("variable %s: %w", v.ID, err)
		}
		doc.Variables = append(doc.Variables, domain.Variable{
			ID:           v.ID,
			Name:         v.Name,
			Type:         typ,
			DefaultValue: v.DefaultValue,
		})
	}
	return doc, nil
}

// DecodeLayer converts one persisted layer (and its subtree) into a Layer.
func DecodeLayer(raw any) (*domain.Layer, error) {
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("layer: expected object, got %T", raw)
	}
	var dto layerDTO
	if err := mapstructure.Decode(raw, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode layer: %w", err)
	}
	if dto.ID == "" {
		return nil, fmt.Errorf("layer of type %q has no id", dto.Type)
	}

	children, err := DecodeChildren(dto.Children)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", dto.ID, err)
	}
	return &domain.Layer{
		ID:       dto.ID,
		Type:     dto.Type,
		Name:     dto.Name,
		Props:    domain.PropsFromMap(dto.Props),
		Children: children,
	}, nil
}

// DecodeChildren converts a persisted children value: a layer list, text or
// a variable reference. nil means no children.
func DecodeChildren(raw any) (domain.Children, error) {
	switch t := raw.(type) {
	case nil:
		return domain.Children{}, nil
	case string:
		return domain.TextChildren(t), nil
	case []any:
		layers := make([]*domain.Layer, 0, len(t))
		for _, c := range t {
			l, err := DecodeLayer(c)
			if err != nil {
				return domain.Children{}, err
			}
			layers = append(layers, l)
		}
		return domain.LayerChildren(layers...), nil
	case map[string]any:
		if ref, ok := domain.NewPropValue(t).(domain.VariableRef); ok {
			return domain.VariableChildren(ref.ID), nil
		}
		return domain.Children{}, fmt.Errorf("children: unexpected object")
	default:
		return domain.Children{}, fmt.Errorf("children: unexpected %T", raw)
	}
}
