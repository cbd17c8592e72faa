package openapiir

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// formBuilder carries the per-run cycle registry: schema identity mapped to
// the interface name generated for it. Identity, not structural equality:
// two textually identical fragments are distinct nodes.
type formBuilder struct {
	r       *Resolver
	visited map[*openapi3.Schema]string
}

// BuildFormModel builds the recursive, polymorphism-aware control tree for
// the named root schema. Self-referential schemas terminate: a revisited node
// becomes a reference to the interface generated on first visit instead of
// being expanded again.
func BuildFormModel(name string, r *Resolver) (FormControl, error) {
	ref := r.GetDefinition(name)
	if ref == nil {
		return FormControl{}, fmt.Errorf("schema %q not found in components of %s", name, r.Document().URI)
	}
	b := &formBuilder{r: r, visited: make(map[*openapi3.Schema]string)}
	return b.build(name, name, ref, false)
}

func (b *formBuilder) build(name, interfaceName string, ref *openapi3.SchemaRef, required bool) (FormControl, error) {
	resolved, err := b.r.ResolveSchema(ref)
	if err != nil {
		return FormControl{}, err
	}
	s := resolved.Value

	// Referenced schemas name their generated interface after the target.
	if ref.Ref != "" {
		interfaceName = schemaNameFromRef(ref.Ref)
	}

	if generated, ok := b.visited[s]; ok {
		return FormControl{
			Name:            ToCamelCase(name),
			OriginalName:    name,
			Type:            ControlGroup,
			NestedInterface: generated,
		}, nil
	}

	composed, err := b.r.MergeAllOf(resolved)
	if err != nil {
		return FormControl{}, err
	}

	switch kind := schemaTypeOf(composed); kind {
	case "object":
		b.visited[s] = ToPascalCase(interfaceName)

		ctl := FormControl{
			Name:         ToCamelCase(name),
			OriginalName: name,
			Type:         ControlGroup,
			Rules:        ExtractRules(s, required),
		}

		discriminator := ""
		if composed.Discriminator != nil {
			discriminator = composed.Discriminator.PropertyName
		}

		// The discriminator property drives option generation instead of
		// appearing as a regular child control.
		if options := b.r.PolymorphicOptions(resolved); len(options) > 0 {
			ctl.DiscriminatorProperty = discriminator
			for _, opt := range options {
				optComposed, err := b.optionComposition(opt.Schema)
				if err != nil {
					continue
				}
				controls, err := b.children(optComposed, discriminator)
				if err != nil {
					continue
				}
				ctl.Options = append(ctl.Options, PolymorphicOptionModel{
					DiscriminatorValue: opt.DiscriminatorValue,
					SchemaName:         opt.Name,
					Controls:           controls,
				})
			}
		}

		controls, err := b.children(composed, discriminator)
		if err != nil {
			return FormControl{}, err
		}
		ctl.Controls = controls
		return ctl, nil

	case "array":
		ctl := FormControl{
			Name:         ToCamelCase(name),
			OriginalName: name,
			Type:         ControlArray,
			Rules:        ExtractRules(s, required),
		}
		if s.Items != nil {
			item, err := b.build("item", interfaceName+"Item", s.Items, false)
			if err != nil {
				return FormControl{}, err
			}
			ctl.ItemControl = &item
		}
		return ctl, nil

	default:
		return FormControl{
			Name:         ToCamelCase(name),
			OriginalName: name,
			Type:         ControlValue,
			Rules:        ExtractRules(s, required),
		}, nil
	}
}

func (b *formBuilder) optionComposition(ref *openapi3.SchemaRef) (*openapi3.Schema, error) {
	resolved, err := b.r.ResolveSchema(ref)
	if err != nil {
		return nil, err
	}
	if _, ok := b.visited[resolved.Value]; !ok {
		b.visited[resolved.Value] = ToPascalCase(schemaNameFromRef(ref.Ref))
	}
	return b.r.MergeAllOf(resolved)
}

// children builds controls for every property of a composed set, skipping
// read-only properties and the discriminator property.
func (b *formBuilder) children(composed *openapi3.Schema, skip string) ([]FormControl, error) {
	requiredSet := make(map[string]bool, len(composed.Required))
	for _, name := range composed.Required {
		requiredSet[name] = true
	}

	var out []FormControl
	for _, name := range sortedPropertyNames(composed.Properties) {
		if name == skip {
			continue
		}
		prop := composed.Properties[name]
		resolved, err := b.r.ResolveSchema(prop)
		if err != nil {
			return nil, err
		}
		if resolved.Value.ReadOnly {
			continue
		}
		child, err := b.build(name, name, prop, requiredSet[name])
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// BuildTypeShape builds the name/shape model of one named schema for type
// emitters.
func BuildTypeShape(name string, r *Resolver) (TypeShape, error) {
	ref := r.GetDefinition(name)
	if ref == nil {
		return TypeShape{}, fmt.Errorf("schema %q not found in components of %s", name, r.Document().URI)
	}
	resolved, err := r.ResolveSchema(ref)
	if err != nil {
		return TypeShape{}, err
	}
	composed, err := r.MergeAllOf(resolved)
	if err != nil {
		return TypeShape{}, err
	}

	shape := TypeShape{Name: ToPascalCase(name), Kind: schemaTypeOf(composed)}
	if composed.Discriminator != nil {
		shape.Discriminator = composed.Discriminator.PropertyName
	}
	for _, opt := range r.PolymorphicOptions(resolved) {
		shape.Options = append(shape.Options, opt.Name)
	}

	requiredSet := make(map[string]bool, len(composed.Required))
	for _, req := range composed.Required {
		requiredSet[req] = true
	}

	for _, propName := range sortedPropertyNames(composed.Properties) {
		prop := composed.Properties[propName]
		resolvedProp, err := r.ResolveSchema(prop)
		if err != nil {
			return TypeShape{}, err
		}
		v := resolvedProp.Value

		field := FieldShape{
			Name:         ToCamelCase(propName),
			OriginalName: propName,
			Kind:         schemaTypeOf(v),
			Format:       v.Format,
			Required:     requiredSet[propName],
			Nullable:     v.Nullable,
			ReadOnly:     v.ReadOnly,
		}
		if prop.Ref != "" {
			field.Ref = schemaNameFromRef(prop.Ref)
		} else if field.Kind == "array" && v.Items != nil && v.Items.Ref != "" {
			field.Ref = schemaNameFromRef(v.Items.Ref)
		}
		shape.Fields = append(shape.Fields, field)
	}
	return shape, nil
}
