package openapiir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// bodyParamName is the code-level name emitters bind request bodies to.
const bodyParamName = "body"

// BuildParam builds the serialization model for one parameter, applying the
// per-location OpenAPI defaults: query/cookie serialize form-style with
// explode, path/header serialize simple-style without.
func BuildParam(ref *openapi3.ParameterRef, r *Resolver) (ParamSerialization, error) {
	if ref == nil || ref.Value == nil {
		return ParamSerialization{}, fmt.Errorf("parameter is nil (origin %s)", r.Document().URI)
	}
	p := ref.Value

	in := ParamLocation(p.In)
	style := p.Style
	if style == "" {
		style = defaultStyle(in)
	}
	explode := style == "form"
	if p.Explode != nil {
		explode = *p.Explode
	}

	ps := ParamSerialization{
		ParamName:     ToCamelCase(p.Name),
		OriginalName:  p.Name,
		In:            in,
		Style:         style,
		Explode:       explode,
		AllowReserved: p.AllowReserved,
		Required:      p.Required,
	}

	if len(p.Content) > 0 {
		// Content-negotiated parameters always round-trip through JSON.
		ps.SerializationLink = SerializationJSON
		if mt := p.Content.Get("application/json"); mt != nil {
			ps.Schema = mt.Schema
		}
		return ps, nil
	}

	if p.Schema != nil {
		resolved, err := r.ResolveSchema(p.Schema)
		if err != nil {
			return ParamSerialization{}, err
		}
		ps.Schema = resolved
		ps.Rules = ExtractRules(resolved.Value, p.Required)
		if needsJSONLink(resolved.Value, r) {
			ps.SerializationLink = SerializationJSON
		}
	}

	return ps, nil
}

func defaultStyle(in ParamLocation) string {
	switch in {
	case InQuery, InCookie:
		return "form"
	default:
		return "simple"
	}
}

// needsJSONLink reports whether a parameter value cannot be rendered by any
// style-based serialization and must be JSON-encoded instead: arrays of
// composites, and objects with composite members.
func needsJSONLink(s *openapi3.Schema, r *Resolver) bool {
	switch schemaTypeOf(s) {
	case "array":
		if s.Items == nil {
			return false
		}
		item, err := r.ResolveSchema(s.Items)
		if err != nil {
			return false
		}
		return isComplexType(schemaTypeOf(item.Value))
	case "object":
		for _, prop := range s.Properties {
			resolved, err := r.ResolveSchema(prop)
			if err != nil {
				continue
			}
			if isComplexType(schemaTypeOf(resolved.Value)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func isComplexType(t string) bool {
	return t == "object" || t == "array"
}

// BuildBody selects the request body variant of an operation by its declared
// media type. Returns nil when the operation has no body.
func BuildBody(op *openapi3.Operation, r *Resolver) (*BodyModel, error) {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, nil
	}
	rb := op.RequestBody.Value
	if len(rb.Content) == 0 {
		return nil, nil
	}

	contentType, media := selectMediaType(rb.Content)
	body := &BodyModel{
		ParamName:   bodyParamName,
		ContentType: contentType,
		Required:    rb.Required,
		Schema:      media.Schema,
	}
	if media.Schema != nil && media.Schema.Ref != "" {
		body.SchemaName = schemaNameFromRef(media.Schema.Ref)
	}

	// Schema-less bodies are opaque regardless of media type.
	if media.Schema == nil || media.Schema.Value == nil {
		body.Kind = BodyRaw
		return body, nil
	}

	switch {
	case isJSONMediaType(contentType):
		body.Kind = BodyJSON

	case isXMLMediaType(contentType):
		body.Kind = BodyXML
		body.XMLRoot = xmlRootName(media.Schema, body.SchemaName)

	case contentType == "multipart/form-data":
		body.Kind = BodyMultipart
		parts, err := multipartParts(media, r)
		if err != nil {
			return nil, err
		}
		body.Parts = parts

	case contentType == "application/x-www-form-urlencoded":
		if len(media.Encoding) > 0 {
			body.Kind = BodyEncodedFormData
			body.Fields = encodedFields(media.Encoding)
		} else {
			body.Kind = BodyURLEncoded
		}

	default:
		body.Kind = BodyRaw
	}

	return body, nil
}

// selectMediaType picks the body media type by preference: JSON family, XML
// family, multipart, urlencoded, then the first remaining type.
func selectMediaType(content openapi3.Content) (string, *openapi3.MediaType) {
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)

	pick := func(match func(string) bool) (string, *openapi3.MediaType) {
		for _, ct := range types {
			if match(ct) {
				return ct, content[ct]
			}
		}
		return "", nil
	}

	if ct, mt := pick(isJSONMediaType); mt != nil {
		return ct, mt
	}
	if ct, mt := pick(isXMLMediaType); mt != nil {
		return ct, mt
	}
	if mt := content["multipart/form-data"]; mt != nil {
		return "multipart/form-data", mt
	}
	if mt := content["application/x-www-form-urlencoded"]; mt != nil {
		return "application/x-www-form-urlencoded", mt
	}
	return types[0], content[types[0]]
}

func isJSONMediaType(ct string) bool {
	base := mediaTypeBase(ct)
	return base == "application/json" || strings.HasSuffix(base, "+json")
}

func isXMLMediaType(ct string) bool {
	base := mediaTypeBase(ct)
	return base == "application/xml" || base == "text/xml" || strings.HasSuffix(base, "+xml")
}

func mediaTypeBase(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

// xmlRootName derives the XML root element name from the schema's xml.name,
// its ref-derived name, or its title.
func xmlRootName(ref *openapi3.SchemaRef, schemaName string) string {
	if ref.Value != nil && ref.Value.XML != nil && ref.Value.XML.Name != "" {
		return ref.Value.XML.Name
	}
	if schemaName != "" {
		return schemaName
	}
	if ref.Value != nil && ref.Value.Title != "" {
		return ref.Value.Title
	}
	return bodyParamName
}

// multipartParts builds the per-property encoding list of a multipart body.
// A property whose composed type is object or array and that carries no
// explicit encoding.contentType override defaults to a JSON-encoded part
// serialized as application/json; everything else is a plain value part.
func multipartParts(media *openapi3.MediaType, r *Resolver) ([]MultipartPart, error) {
	composed, err := r.MergeAllOf(media.Schema)
	if err != nil {
		return nil, err
	}

	propertyTypes := make(map[string]string, len(composed.Properties))
	for name, prop := range composed.Properties {
		resolved, err := r.ResolveSchema(prop)
		if err != nil {
			return nil, err
		}
		propertyTypes[name] = schemaTypeOf(resolved.Value)
	}

	requiredSet := make(map[string]bool, len(composed.Required))
	for _, name := range composed.Required {
		requiredSet[name] = true
	}

	parts := make([]MultipartPart, 0, len(propertyTypes))
	for _, name := range sortedPropertyNames(composed.Properties) {
		part := MultipartPart{Name: name, Required: requiredSet[name]}

		var override string
		if enc, ok := media.Encoding[name]; ok && enc != nil {
			override = enc.ContentType
		}
		switch {
		case override != "":
			part.ContentType = override
		case isComplexType(propertyTypes[name]):
			part.ContentType = "application/json"
			part.JSONEncoded = true
		}

		parts = append(parts, part)
	}
	return parts, nil
}

// encodedFields normalizes the encoding map of an urlencoded body.
func encodedFields(encoding map[string]*openapi3.Encoding) []EncodedField {
	names := make([]string, 0, len(encoding))
	for name := range encoding {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]EncodedField, 0, len(names))
	for _, name := range names {
		enc := encoding[name]
		field := EncodedField{Name: name, Style: "form", Explode: true}
		if enc != nil {
			if enc.Style != "" {
				field.Style = enc.Style
			}
			if enc.Explode != nil {
				field.Explode = *enc.Explode
			}
		}
		fields = append(fields, field)
	}
	return fields
}
