package openapiir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Resolver resolves $ref strings against one origin document, loading
// referenced documents through the shared Cache on demand. Resolution is
// idempotent: resolving the same reference twice returns the identical node,
// which is what downstream cycle detection relies on.
type Resolver struct {
	cache *Cache
	doc   *Document
	depth int

	resolved map[string]*openapi3.SchemaRef
}

// NewResolver creates a resolver rooted at doc.
func NewResolver(cache *Cache, doc *Document) *Resolver {
	return &Resolver{
		cache:    cache,
		doc:      doc,
		resolved: make(map[string]*openapi3.SchemaRef),
	}
}

// Spec returns the origin specification object.
func (r *Resolver) Spec() *openapi3.T { return r.doc.OAS }

// Document returns the origin document.
func (r *Resolver) Document() *Document { return r.doc }

// GetDefinition returns the named components.schemas entry, or nil.
func (r *Resolver) GetDefinition(name string) *openapi3.SchemaRef {
	if r.doc.OAS.Components == nil {
		return nil
	}
	return r.doc.OAS.Components.Schemas[name]
}

// ResolveSchema resolves a node-or-reference: a SchemaRef that already
// carries a value is returned as-is, otherwise its $ref is resolved.
func (r *Resolver) ResolveSchema(ref *openapi3.SchemaRef) (*openapi3.SchemaRef, error) {
	if ref == nil {
		return nil, fmt.Errorf("cannot resolve nil schema reference (origin %s)", r.doc.URI)
	}
	if ref.Value != nil {
		return ref, nil
	}
	return r.Resolve(ref.Ref)
}

// Resolve resolves a reference string: a bare JSON-pointer fragment (#/...)
// against the origin document, or a URI with a fragment against the target
// document, loading it through the cache if not yet cached. A reference that
// points nowhere reachable is a hard failure.
func (r *Resolver) Resolve(ref string) (*openapi3.SchemaRef, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty reference (origin %s)", r.doc.URI)
	}
	if cached, ok := r.resolved[ref]; ok {
		return cached, nil
	}

	node, err := r.resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve reference %q from %s: %w", ref, r.doc.URI, err)
	}
	schema, ok := node.(*openapi3.SchemaRef)
	if !ok {
		return nil, fmt.Errorf("reference %q from %s does not point at a schema (got %T)", ref, r.doc.URI, node)
	}
	if schema == nil || schema.Value == nil {
		return nil, fmt.Errorf("reference %q from %s points at an empty schema", ref, r.doc.URI)
	}
	r.resolved[ref] = schema
	return schema, nil
}

// ResolveNode is Resolve without the schema constraint; it returns whatever
// specification object the pointer lands on.
func (r *Resolver) ResolveNode(ref string) (interface{}, error) {
	node, err := r.resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve reference %q from %s: %w", ref, r.doc.URI, err)
	}
	return node, nil
}

func (r *Resolver) resolve(ref string) (interface{}, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.cache.opts.MaxDepth {
		return nil, fmt.Errorf("maximum reference depth exceeded: %d", r.cache.opts.MaxDepth)
	}

	if isLocalRef(ref) {
		return navigate(r.doc, strings.TrimPrefix(ref, "#"))
	}

	parts := strings.SplitN(ref, "#", 2)
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("cross-document reference must include a fragment identifier")
	}
	if isURLRef(parts[0]) && r.cache.opts.SkipRemote {
		return nil, fmt.Errorf("remote references are disabled")
	}

	target, err := resolveAgainst(r.doc.URI, parts[0])
	if err != nil {
		return nil, err
	}
	doc, err := r.cache.Load(target)
	if err != nil {
		return nil, err
	}
	return navigate(doc, parts[1])
}

// navigate walks a JSON-pointer fragment through the typed document
// structure. Tokens are RFC 6901-unescaped.
func navigate(doc *Document, fragment string) (interface{}, error) {
	tokens := strings.Split(strings.TrimPrefix(fragment, "/"), "/")

	var current interface{} = doc.OAS
	for i, raw := range tokens {
		token := unescapePointerToken(raw)

		switch v := current.(type) {
		case *openapi3.T:
			switch token {
			case "components":
				if v.Components == nil {
					return nil, fmt.Errorf("document has no components section")
				}
				current = v.Components
			case "paths":
				if v.Paths == nil {
					return nil, fmt.Errorf("document has no paths section")
				}
				current = v.Paths
			default:
				return nil, fmt.Errorf("unsupported path component at position %d: %s", i, token)
			}

		case *openapi3.Components:
			switch token {
			case "schemas":
				current = v.Schemas
			case "parameters":
				current = v.Parameters
			case "requestBodies":
				current = v.RequestBodies
			case "responses":
				current = v.Responses
			case "headers":
				current = v.Headers
			case "securitySchemes":
				current = v.SecuritySchemes
			case "examples":
				current = v.Examples
			default:
				return nil, fmt.Errorf("unsupported components section at position %d: %s", i, token)
			}

		case openapi3.Schemas:
			schema, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("schema not found: %s", token)
			}
			current = schema

		case *openapi3.SchemaRef:
			next, err := schemaChild(v, token)
			if err != nil {
				return nil, fmt.Errorf("at position %d: %w", i, err)
			}
			current = next

		case openapi3.SchemaRefs:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("invalid sub-schema index: %s", token)
			}
			current = v[idx]

		case *openapi3.Paths:
			item := v.Value(token)
			if item == nil {
				return nil, fmt.Errorf("path not found: %s", token)
			}
			current = item

		case openapi3.ParametersMap:
			p, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("parameter not found: %s", token)
			}
			current = p

		case openapi3.RequestBodies:
			rb, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("request body not found: %s", token)
			}
			current = rb

		case openapi3.ResponseBodies:
			resp, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("response not found: %s", token)
			}
			current = resp

		case openapi3.Headers:
			h, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("header not found: %s", token)
			}
			current = h

		case openapi3.SecuritySchemes:
			s, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("security scheme not found: %s", token)
			}
			current = s

		case openapi3.Examples:
			e, ok := v[token]
			if !ok {
				return nil, fmt.Errorf("example not found: %s", token)
			}
			current = e

		default:
			return nil, fmt.Errorf("unexpected node type at position %d: %T", i, current)
		}
	}

	return current, nil
}

// schemaChild steps from a schema into one of its sub-schema positions.
func schemaChild(ref *openapi3.SchemaRef, token string) (interface{}, error) {
	if ref.Value == nil {
		return nil, fmt.Errorf("schema has no value")
	}
	s := ref.Value
	switch token {
	case "properties":
		return s.Properties, nil
	case "items":
		if s.Items == nil {
			return nil, fmt.Errorf("schema has no items")
		}
		return s.Items, nil
	case "allOf":
		return s.AllOf, nil
	case "oneOf":
		return s.OneOf, nil
	case "anyOf":
		return s.AnyOf, nil
	case "not":
		if s.Not == nil {
			return nil, fmt.Errorf("schema has no not sub-schema")
		}
		return s.Not, nil
	case "additionalProperties":
		if s.AdditionalProperties.Schema == nil {
			return nil, fmt.Errorf("schema has no additionalProperties sub-schema")
		}
		return s.AdditionalProperties.Schema, nil
	default:
		return nil, fmt.Errorf("unsupported schema sub-path: %s", token)
	}
}

// unescapePointerToken undoes RFC 6901 escaping (~1 then ~0).
func unescapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
