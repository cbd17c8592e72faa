package openapiir

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// PolymorphicOption pairs one concrete subtype of a discriminated union with
// the discriminator value that selects it.
type PolymorphicOption struct {
	Name               string
	DiscriminatorValue string
	Schema             *openapi3.SchemaRef
}

// MergeAllOf resolves every allOf member recursively and returns the composed
// schema. Properties union member-by-member, the node's own properties win
// over member-declared ones, and required arrays accumulate: a later member
// never silently drops required-ness declared earlier.
func (r *Resolver) MergeAllOf(ref *openapi3.SchemaRef) (*openapi3.Schema, error) {
	return r.mergeAllOf(ref, make(map[*openapi3.Schema]bool))
}

func (r *Resolver) mergeAllOf(ref *openapi3.SchemaRef, visited map[*openapi3.Schema]bool) (*openapi3.Schema, error) {
	resolved, err := r.ResolveSchema(ref)
	if err != nil {
		return nil, err
	}
	s := resolved.Value

	// Composition cycles return an empty placeholder instead of recursing.
	if visited[s] {
		return &openapi3.Schema{}, nil
	}
	visited[s] = true

	merged := &openapi3.Schema{
		Type:          s.Type,
		Format:        s.Format,
		Nullable:      s.Nullable,
		ReadOnly:      s.ReadOnly,
		Discriminator: s.Discriminator,
		Properties:    make(openapi3.Schemas),
	}

	for _, member := range s.AllOf {
		sub, err := r.mergeAllOf(member, visited)
		if err != nil {
			return nil, err
		}
		for name, prop := range sub.Properties {
			merged.Properties[name] = prop
		}
		merged.Required = appendUnique(merged.Required, sub.Required...)
		if merged.Type == nil {
			merged.Type = sub.Type
		}
		if merged.Discriminator == nil {
			merged.Discriminator = sub.Discriminator
		}
	}

	for name, prop := range s.Properties {
		merged.Properties[name] = prop
	}
	merged.Required = appendUnique(merged.Required, s.Required...)

	return merged, nil
}

// PolymorphicOptions returns the concrete subtypes of a discriminated union
// in deterministic order. With an explicit discriminator mapping, every entry
// is resolved and kept only if the target's composed property set exposes the
// discriminator property; stale entries are dropped silently. Without a
// mapping the option list derives from oneOf: $ref members always, inline
// members only when no discriminator is declared at all. An empty result
// means the schema is not polymorphic, regardless of the discriminator
// keyword being present.
func (r *Resolver) PolymorphicOptions(ref *openapi3.SchemaRef) []PolymorphicOption {
	resolved, err := r.ResolveSchema(ref)
	if err != nil {
		return nil
	}
	s := resolved.Value
	d := s.Discriminator

	if d != nil && len(d.Mapping) > 0 {
		// kin-openapi surfaces the mapping as a Go map, so document order is
		// gone; sorted keys keep repeated runs list-equal.
		values := make([]string, 0, len(d.Mapping))
		for v := range d.Mapping {
			values = append(values, v)
		}
		sort.Strings(values)

		options := make([]PolymorphicOption, 0, len(values))
		for _, value := range values {
			// A mapping value may be a bare schema name instead of a
			// reference; it implies the components.schemas entry.
			target := d.Mapping[value]
			if !strings.ContainsAny(target, "/#") {
				target = "#/components/schemas/" + target
			}
			option, err := r.Resolve(target)
			if err != nil {
				continue
			}
			if !r.exposesProperty(option, d.PropertyName) {
				continue
			}
			options = append(options, PolymorphicOption{
				Name:               schemaNameFromRef(target),
				DiscriminatorValue: value,
				Schema:             option,
			})
		}
		return options
	}

	options := make([]PolymorphicOption, 0, len(s.OneOf))
	for _, member := range s.OneOf {
		if member == nil {
			continue
		}
		if member.Ref != "" {
			option, err := r.ResolveSchema(member)
			if err != nil {
				continue
			}
			name := schemaNameFromRef(member.Ref)
			if d != nil && !r.exposesProperty(option, d.PropertyName) {
				continue
			}
			value := name
			if d != nil {
				if pinned, ok := r.pinnedDiscriminatorValue(option, d.PropertyName); ok {
					value = pinned
				}
			}
			options = append(options, PolymorphicOption{Name: name, DiscriminatorValue: value, Schema: option})
			continue
		}
		// Inline sub-schemas participate only in the pure
		// oneOf-without-discriminator case.
		if d == nil && member.Value != nil {
			name := member.Value.Title
			options = append(options, PolymorphicOption{Name: name, DiscriminatorValue: name, Schema: member})
		}
	}
	return options
}

// exposesProperty reports whether the composed property set of ref contains
// the named property.
func (r *Resolver) exposesProperty(ref *openapi3.SchemaRef, property string) bool {
	if property == "" {
		return false
	}
	composed, err := r.MergeAllOf(ref)
	if err != nil {
		return false
	}
	_, ok := composed.Properties[property]
	return ok
}

// pinnedDiscriminatorValue returns the discriminator value a subtype pins via
// a single-value enum or const on the discriminator property.
func (r *Resolver) pinnedDiscriminatorValue(ref *openapi3.SchemaRef, property string) (string, bool) {
	composed, err := r.MergeAllOf(ref)
	if err != nil {
		return "", false
	}
	prop := composed.Properties[property]
	if prop == nil || prop.Value == nil {
		return "", false
	}
	if len(prop.Value.Enum) == 1 {
		if s, ok := prop.Value.Enum[0].(string); ok {
			return s, true
		}
	}
	if c, ok := prop.Value.Extensions["const"]; ok {
		if s, ok := c.(string); ok {
			return s, true
		}
	}
	return "", false
}

// schemaNameFromRef extracts the schema name from a reference string, e.g.
// "#/components/schemas/Pet" yields "Pet".
func schemaNameFromRef(ref string) string {
	parts := strings.Split(ref, "/")
	if len(parts) == 0 {
		return ""
	}
	return unescapePointerToken(parts[len(parts)-1])
}

// schemaTypeOf returns the primary declared type of a schema, falling back to
// "object" for property-bearing schemas with no type keyword.
func schemaTypeOf(s *openapi3.Schema) string {
	if s == nil {
		return ""
	}
	if s.Type != nil && len(*s.Type) > 0 {
		return (*s.Type)[0]
	}
	if len(s.Properties) > 0 || len(s.AllOf) > 0 {
		return "object"
	}
	if s.Items != nil {
		return "array"
	}
	return ""
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// sortedPropertyNames returns a schema's property names in stable order.
func sortedPropertyNames(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
