package openapiir

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildMethodModel assembles the service-method IR for one flattened
// operation record: serialized parameters by location, the body variant,
// effective security and the success response.
func BuildMethodModel(info PathInfo, r *Resolver) (MethodModel, error) {
	op := info.Operation
	if op == nil {
		return MethodModel{}, fmt.Errorf("operation is nil for %s %s", info.Method, info.Path)
	}

	m := MethodModel{
		Name:        methodName(info),
		OperationID: op.OperationID,
		Method:      info.Method,
		Path:        info.Path,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
	}

	for _, pr := range info.Parameters {
		ps, err := BuildParam(pr, r)
		if err != nil {
			return MethodModel{}, fmt.Errorf("operation %s %s: %w", info.Method, info.Path, err)
		}
		switch ps.In {
		case InPath:
			m.PathParams = append(m.PathParams, ps)
		case InQuery:
			m.QueryParams = append(m.QueryParams, ps)
		case InHeader:
			m.HeaderParams = append(m.HeaderParams, ps)
		case InCookie:
			m.CookieParams = append(m.CookieParams, ps)
		}
	}

	body, err := BuildBody(op, r)
	if err != nil {
		return MethodModel{}, fmt.Errorf("operation %s %s: %w", info.Method, info.Path, err)
	}
	m.Body = body

	m.Security = EffectiveSecurity(r.Spec(), op)

	if info.Servers != nil && len(*info.Servers) > 0 {
		m.HasServers = true
		m.BasePath = (*info.Servers)[0].URL
	}

	m.Response = buildResponse(op)

	return m, nil
}

// methodName derives a code-safe method name from the operation id, falling
// back to method plus path.
func methodName(info PathInfo) string {
	if info.Operation.OperationID != "" {
		return ToCamelCase(info.Operation.OperationID)
	}
	return ToCamelCase(lowerMethod(info.Method) + " " + info.Path)
}

// buildResponse picks the success response: 200 and 201 first, then any
// other 2xx in sorted order. 204 yields a void response. JSON content is
// preferred within a response.
func buildResponse(op *openapi3.Operation) *ResponseModel {
	if op.Responses == nil {
		return nil
	}
	responses := op.Responses.Map()

	codes := []string{"200", "201"}
	var rest []string
	for code := range responses {
		if len(code) == 3 && code[0] == '2' && code != "200" && code != "201" {
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)
	codes = append(codes, rest...)

	for _, code := range codes {
		rr, ok := responses[code]
		if !ok || rr == nil || rr.Value == nil {
			continue
		}
		if code == "204" {
			return &ResponseModel{Status: code, Void: true}
		}
		model := &ResponseModel{Status: code}
		ct, media := pickResponseContent(rr.Value.Content)
		if media == nil {
			model.Void = true
			return model
		}
		model.ContentType = ct
		model.Schema = media.Schema
		if media.Schema != nil && media.Schema.Ref != "" {
			model.SchemaName = schemaNameFromRef(media.Schema.Ref)
		}
		return model
	}
	return nil
}

func pickResponseContent(content openapi3.Content) (string, *openapi3.MediaType) {
	if len(content) == 0 {
		return "", nil
	}
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)

	for _, ct := range types {
		if isJSONMediaType(ct) {
			return ct, content[ct]
		}
	}
	return types[0], content[types[0]]
}
