package openapiir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controlNames(controls []FormControl) []string {
	names := make([]string, 0, len(controls))
	for _, c := range controls {
		names = append(names, c.OriginalName)
	}
	return names
}

func TestBuildFormModelMissingSchema(t *testing.T) {
	cache, doc := loadTestDocument(t, "petstore.yaml")
	r := NewResolver(cache, doc)

	_, err := BuildFormModel("Nope", r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "Nope" not found`)
}

func TestBuildFormModelObject(t *testing.T) {
	cache, doc := loadTestDocument(t, "petstore.yaml")
	r := NewResolver(cache, doc)

	form, err := BuildFormModel("Pet", r)
	require.NoError(t, err)
	assert.Equal(t, ControlGroup, form.Type)
	assert.Equal(t, "pet", form.Name)

	// id is read-only and stays out of the form.
	assert.Equal(t, []string{"name", "tag"}, controlNames(form.Controls))

	name := form.Controls[0]
	assert.Equal(t, ControlValue, name.Type)
	require.NotEmpty(t, name.Rules)
	assert.Equal(t, RuleRequired, name.Rules[0].Kind)
	assert.Equal(t, RuleMinLength, name.Rules[1].Kind)
}

func TestBuildFormModelCycleTerminates(t *testing.T) {
	cache, doc := loadTestDocument(t, "cyclic.yaml")
	r := NewResolver(cache, doc)

	form, err := BuildFormModel("Node", r)
	require.NoError(t, err)
	assert.Equal(t, ControlGroup, form.Type)

	// secret is read-only and skipped.
	assert.Equal(t, []string{"children", "label"}, controlNames(form.Controls))

	children := form.Controls[0]
	assert.Equal(t, ControlArray, children.Type)
	require.NotNil(t, children.ItemControl)

	// The self-referential item collapses into a reference to the interface
	// generated for the root instead of expanding forever.
	item := children.ItemControl
	assert.Equal(t, ControlGroup, item.Type)
	assert.Equal(t, "Node", item.NestedInterface)
	assert.Empty(t, item.Controls)
}

func TestBuildFormModelPolymorphic(t *testing.T) {
	cache, doc := loadTestDocument(t, "polymorphic.yaml")
	r := NewResolver(cache, doc)

	form, err := BuildFormModel("Shape", r)
	require.NoError(t, err)
	assert.Equal(t, ControlGroup, form.Type)
	assert.Equal(t, "kind", form.DiscriminatorProperty)

	// The discriminator property never shows up as a plain child control.
	assert.NotContains(t, controlNames(form.Controls), "kind")

	require.Len(t, form.Options, 2)

	circle := form.Options[0]
	assert.Equal(t, "circle", circle.DiscriminatorValue)
	assert.Equal(t, "Circle", circle.SchemaName)
	assert.Equal(t, []string{"radius"}, controlNames(circle.Controls))
	require.NotEmpty(t, circle.Controls[0].Rules)
	assert.Equal(t, RuleRequired, circle.Controls[0].Rules[0].Kind)

	square := form.Options[1]
	assert.Equal(t, "square", square.DiscriminatorValue)
	assert.Equal(t, []string{"side"}, controlNames(square.Controls))
}

func TestBuildTypeShape(t *testing.T) {
	cache, doc := loadTestDocument(t, "petstore.yaml")
	r := NewResolver(cache, doc)

	shape, err := BuildTypeShape("Pet", r)
	require.NoError(t, err)
	assert.Equal(t, "Pet", shape.Name)
	assert.Equal(t, "object", shape.Kind)
	require.Len(t, shape.Fields, 3)

	assert.Equal(t, "id", shape.Fields[0].OriginalName)
	assert.True(t, shape.Fields[0].ReadOnly)
	assert.Equal(t, "integer", shape.Fields[0].Kind)

	assert.Equal(t, "name", shape.Fields[1].OriginalName)
	assert.True(t, shape.Fields[1].Required)

	assert.Equal(t, "tag", shape.Fields[2].OriginalName)
	assert.False(t, shape.Fields[2].Required)
}

func TestBuildTypeShapePolymorphic(t *testing.T) {
	cache, doc := loadTestDocument(t, "polymorphic.yaml")
	r := NewResolver(cache, doc)

	shape, err := BuildTypeShape("Shape", r)
	require.NoError(t, err)
	assert.Equal(t, "kind", shape.Discriminator)
	assert.Equal(t, []string{"Circle", "Square"}, shape.Options)
}

func TestBuildTypeShapeArrayFieldRef(t *testing.T) {
	cache, doc := loadTestDocument(t, "cyclic.yaml")
	r := NewResolver(cache, doc)

	shape, err := BuildTypeShape("Node", r)
	require.NoError(t, err)

	var children *FieldShape
	for i := range shape.Fields {
		if shape.Fields[i].OriginalName == "children" {
			children = &shape.Fields[i]
		}
	}
	require.NotNil(t, children)
	assert.Equal(t, "array", children.Kind)
	assert.Equal(t, "Node", children.Ref)
}
