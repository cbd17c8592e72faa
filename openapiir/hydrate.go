package openapiir

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// JSON Schema keywords that kin-openapi does not carry on openapi3.Schema.
// They are copied verbatim from the raw document tree into Schema.Extensions
// so the rule extractor can read every keyword from one place.
var hydratedKeywords = []string{
	"const",
	"contains",
	"minContains",
	"maxContains",
	"contentEncoding",
	"exclusiveMinimum",
	"exclusiveMaximum",
}

// hydrateDocument walks the raw tree and the typed tree in parallel and
// hydrates every schema it can pair up: components.schemas plus the inline
// schemas reachable through paths (parameters, request bodies, responses).
func hydrateDocument(doc *openapi3.T, raw map[string]interface{}) {
	if doc == nil || raw == nil {
		return
	}
	visited := make(map[*openapi3.Schema]bool)

	if components, ok := raw["components"].(map[string]interface{}); ok && doc.Components != nil {
		if schemas, ok := components["schemas"].(map[string]interface{}); ok {
			for name, rv := range schemas {
				rawSchema, ok := rv.(map[string]interface{})
				if !ok {
					continue
				}
				hydrateSchemaRef(doc.Components.Schemas[name], rawSchema, visited)
			}
		}
	}

	rawPaths, ok := raw["paths"].(map[string]interface{})
	if !ok || doc.Paths == nil {
		return
	}
	for p, rv := range rawPaths {
		rawItem, ok := rv.(map[string]interface{})
		if !ok {
			continue
		}
		hydratePathItem(doc.Paths.Value(p), rawItem, visited)
	}
}

func hydratePathItem(item *openapi3.PathItem, raw map[string]interface{}, visited map[*openapi3.Schema]bool) {
	if item == nil {
		return
	}
	hydrateParameters(item.Parameters, raw["parameters"], visited)
	for method, op := range item.Operations() {
		rawOp, ok := raw[lowerMethod(method)].(map[string]interface{})
		if !ok {
			continue
		}
		hydrateParameters(op.Parameters, rawOp["parameters"], visited)
		if rb, ok := rawOp["requestBody"].(map[string]interface{}); ok && op.RequestBody != nil && op.RequestBody.Value != nil {
			hydrateContent(op.RequestBody.Value.Content, rb["content"], visited)
		}
		if responses, ok := rawOp["responses"].(map[string]interface{}); ok && op.Responses != nil {
			for status, rr := range op.Responses.Map() {
				rawResp, ok := responses[status].(map[string]interface{})
				if !ok || rr == nil || rr.Value == nil {
					continue
				}
				hydrateContent(rr.Value.Content, rawResp["content"], visited)
			}
		}
	}
}

func hydrateParameters(params openapi3.Parameters, raw interface{}, visited map[*openapi3.Schema]bool) {
	rawList, ok := raw.([]interface{})
	if !ok {
		return
	}
	for i, pr := range params {
		if i >= len(rawList) {
			break
		}
		if pr == nil || pr.Value == nil {
			continue
		}
		rawParam, ok := rawList[i].(map[string]interface{})
		if !ok {
			continue
		}
		if rawSchema, ok := rawParam["schema"].(map[string]interface{}); ok {
			hydrateSchemaRef(pr.Value.Schema, rawSchema, visited)
		}
	}
}

func hydrateContent(content openapi3.Content, raw interface{}, visited map[*openapi3.Schema]bool) {
	rawContent, ok := raw.(map[string]interface{})
	if !ok {
		return
	}
	for mediaType, mt := range content {
		rawMedia, ok := rawContent[mediaType].(map[string]interface{})
		if !ok || mt == nil {
			continue
		}
		if rawSchema, ok := rawMedia["schema"].(map[string]interface{}); ok {
			hydrateSchemaRef(mt.Schema, rawSchema, visited)
		}
	}
}

// hydrateSchemaRef hydrates one schema node and recurses through the
// sub-schema positions both trees share. Raw $ref nodes stop the walk: the
// target is hydrated at its own definition site.
func hydrateSchemaRef(ref *openapi3.SchemaRef, raw map[string]interface{}, visited map[*openapi3.Schema]bool) {
	if ref == nil || ref.Value == nil || raw == nil {
		return
	}
	if _, isRef := raw["$ref"]; isRef {
		return
	}
	schema := ref.Value
	if visited[schema] {
		return
	}
	visited[schema] = true

	for _, keyword := range hydratedKeywords {
		v, ok := raw[keyword]
		if !ok {
			continue
		}
		if schema.Extensions == nil {
			schema.Extensions = make(map[string]interface{})
		}
		if _, exists := schema.Extensions[keyword]; !exists {
			schema.Extensions[keyword] = v
		}
	}

	if rawProps, ok := raw["properties"].(map[string]interface{}); ok {
		for name, prop := range schema.Properties {
			if rawProp, ok := rawProps[name].(map[string]interface{}); ok {
				hydrateSchemaRef(prop, rawProp, visited)
			}
		}
	}
	if rawItems, ok := raw["items"].(map[string]interface{}); ok {
		hydrateSchemaRef(schema.Items, rawItems, visited)
	}
	if rawAP, ok := raw["additionalProperties"].(map[string]interface{}); ok {
		hydrateSchemaRef(schema.AdditionalProperties.Schema, rawAP, visited)
	}
	if rawNot, ok := raw["not"].(map[string]interface{}); ok {
		hydrateSchemaRef(schema.Not, rawNot, visited)
	}
	hydrateSchemaList(schema.AllOf, raw["allOf"], visited)
	hydrateSchemaList(schema.OneOf, raw["oneOf"], visited)
	hydrateSchemaList(schema.AnyOf, raw["anyOf"], visited)
}

func hydrateSchemaList(refs openapi3.SchemaRefs, raw interface{}, visited map[*openapi3.Schema]bool) {
	rawList, ok := raw.([]interface{})
	if !ok {
		return
	}
	for i, ref := range refs {
		if i >= len(rawList) {
			break
		}
		if rawSchema, ok := rawList[i].(map[string]interface{}); ok {
			hydrateSchemaRef(ref, rawSchema, visited)
		}
	}
}
