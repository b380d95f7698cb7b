package store_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVariable(t *testing.T) {
	s := newStore(t)

	id, err := s.AddVariable("count", domain.VariableNumber, 3)
	require.NoError(t, err)
	v, ok := s.Document().Variable(id)
	require.True(t, ok)
	assert.Equal(t, "count", v.Name)
	assert.Equal(t, 3, v.DefaultValue)

	_, err = s.AddVariable("bad", domain.VariableType("date"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidVariableType)
	assert.Len(t, s.Document().Variables, 1)
}

func TestUpdateVariable(t *testing.T) {
	s := newStore(t)
	id, _ := s.AddVariable("count", domain.VariableNumber, 3)

	name := "total"
	require.NoError(t, s.UpdateVariable(id, domain.VariablePatch{Name: &name, DefaultValue: 10, SetDefault: true}))
	v, _ := s.Document().Variable(id)
	assert.Equal(t, "total", v.Name)
	assert.Equal(t, 10, v.DefaultValue)
	assert.Equal(t, domain.VariableNumber, v.Type)

	t.Run("Unknown id leaves state unchanged", func(t *testing.T) {
		before := s.Document()
		err := s.UpdateVariable("ghost", domain.VariablePatch{Name: &name})
		assert.ErrorIs(t, err, domain.ErrVariableNotFound)
		assert.Equal(t, before, s.Document())
	})

	t.Run("Invalid type", func(t *testing.T) {
		bad := domain.VariableType("list")
		assert.ErrorIs(t, s.UpdateVariable(id, domain.VariablePatch{Type: &bad}), domain.ErrInvalidVariableType)
	})
}

func TestRemoveVariable_Sweep(t *testing.T) {
	s := newStore(t)
	vid, _ := s.AddVariable("label", domain.VariableString, "Hi")
	keep, _ := s.AddVariable("keep", domain.VariableString, "K")

	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)
	flex, _ := s.AddComponentLayer("Flex", "", tree.AtEnd)
	other := s.AddPageLayer("Other")
	otherBtn, _ := s.AddComponentLayer("Button", other, tree.AtEnd)

	require.NoError(t, s.BindPropToVariable(btn, "label", vid))
	require.NoError(t, s.BindPropToVariable(btn, "title", keep))
	require.NoError(t, s.BindPropToVariable(flex, "aria", vid))
	require.NoError(t, s.BindPropToVariable(otherBtn, "label", vid))
	require.NoError(t, s.SelectPage(s.Document().Pages[0].ID))
	require.NoError(t, s.UpdateLayer(flex, domain.Props{
		"style": domain.PropMap{"color": domain.Ref(vid), "size": domain.Lit(2)},
	}, nil))
	bound := domain.VariableChildren(vid)
	require.NoError(t, s.UpdateLayer(btn, nil, &domain.LayerPatch{Children: &bound}))
	boundFlex := domain.VariableChildren(vid)
	require.NoError(t, s.UpdateLayer(flex, nil, &domain.LayerPatch{Children: &boundFlex}))

	require.NoError(t, s.RemoveVariable(vid))

	doc := s.Document()
	_, exists := doc.Variable(vid)
	assert.False(t, exists)

	b := s.FindLayerByID(btn)
	assert.Equal(t, domain.Lit("Click"), b.Props["label"], "schema default replaces the reference")
	assert.Equal(t, domain.Ref(keep), b.Props["title"], "other references survive")
	assert.Equal(t, domain.TextChildren("Button"), b.Children, "default text children are restored")

	f := s.FindLayerByID(flex)
	assert.NotContains(t, f.Props, "aria", "no schema default: prop is deleted")
	assert.Equal(t, domain.PropMap{"size": domain.Lit(2)}, f.Props["style"])
	assert.Equal(t, domain.ChildrenNone, f.Children.Kind, "flex has no default text children")

	ob := s.FindLayerByID(otherBtn)
	assert.Equal(t, domain.Lit("Click"), ob.Props["label"], "every page is swept")

	tree.Walk(doc.Pages, func(l *domain.Layer, _ int) bool {
		for _, v := range l.Props {
			assert.False(t, domain.ReferencesVariable(v, vid), "dangling reference on %s", l.ID)
		}
		return true
	})

	assert.ErrorIs(t, s.RemoveVariable(vid), domain.ErrVariableNotFound)
}

func TestBindAndUnbind(t *testing.T) {
	s := newStore(t)
	vid, _ := s.AddVariable("label", domain.VariableString, "Hi")
	btn, _ := s.AddComponentLayer("Button", "", tree.AtEnd)

	require.NoError(t, s.BindPropToVariable(btn, "label", vid))
	assert.Equal(t, domain.Ref(vid), s.FindLayerByID(btn).Props["label"])

	require.NoError(t, s.UnbindPropFromVariable(btn, "label"))
	assert.Equal(t, domain.Lit("Click"), s.FindLayerByID(btn).Props["label"])

	t.Run("No schema default falls back to empty string", func(t *testing.T) {
		require.NoError(t, s.BindPropToVariable(btn, "tooltip", vid))
		require.NoError(t, s.UnbindPropFromVariable(btn, "tooltip"))
		assert.Equal(t, domain.Lit(""), s.FindLayerByID(btn).Props["tooltip"])
	})

	t.Run("Literal props are left alone", func(t *testing.T) {
		before := s.Document()
		require.NoError(t, s.UnbindPropFromVariable(btn, "variant"))
		assert.Equal(t, before, s.Document())
	})

	t.Run("Unknown targets", func(t *testing.T) {
		assert.ErrorIs(t, s.BindPropToVariable(btn, "label", "ghost"), domain.ErrVariableNotFound)
		assert.ErrorIs(t, s.BindPropToVariable("ghost", "label", vid), domain.ErrLayerNotFound)
		assert.ErrorIs(t, s.UnbindPropFromVariable("ghost", "label"), domain.ErrLayerNotFound)
	})
}
