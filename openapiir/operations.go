package openapiir

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultControllerName groups untagged operations on root paths.
const DefaultControllerName = "Default"

// pathItemMethods is the fixed method order operations are emitted in.
var pathItemMethods = []string{"GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD", "PATCH", "TRACE"}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "PUT":
		return item.Put
	case "POST":
		return item.Post
	case "DELETE":
		return item.Delete
	case "OPTIONS":
		return item.Options
	case "HEAD":
		return item.Head
	case "PATCH":
		return item.Patch
	case "TRACE":
		return item.Trace
	default:
		return nil
	}
}

func lowerMethod(method string) string { return strings.ToLower(method) }

// ExtractOperations flattens paths and webhooks into one record per
// (path, method). Path-item-level parameters merge with operation-level
// ones; an operation parameter with the same name and location wins.
func ExtractOperations(doc *Document) []PathInfo {
	var out []PathInfo

	if doc.OAS.Paths != nil {
		paths := doc.OAS.Paths.Map()
		names := make([]string, 0, len(paths))
		for p := range paths {
			names = append(names, p)
		}
		sort.Strings(names)

		for _, p := range names {
			out = append(out, extractPathItem(p, paths[p], false)...)
		}
	}

	if len(doc.Webhooks) > 0 {
		names := make([]string, 0, len(doc.Webhooks))
		for name := range doc.Webhooks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			out = append(out, extractPathItem(name, doc.Webhooks[name], true)...)
		}
	}

	return out
}

func extractPathItem(path string, item *openapi3.PathItem, webhook bool) []PathInfo {
	if item == nil {
		return nil
	}
	var out []PathInfo
	for _, method := range pathItemMethods {
		op := operationFor(item, method)
		if op == nil {
			continue
		}
		servers := op.Servers
		if servers == nil && len(item.Servers) > 0 {
			itemServers := item.Servers
			servers = &itemServers
		}
		out = append(out, PathInfo{
			Path:       path,
			Method:     method,
			IsWebhook:  webhook,
			Operation:  op,
			Parameters: mergeParameters(item.Parameters, op.Parameters),
			Servers:    servers,
		})
	}
	return out
}

// mergeParameters combines path-item and operation parameters. Operation
// parameters override path-level ones sharing name and location.
func mergeParameters(pathLevel, opLevel openapi3.Parameters) openapi3.Parameters {
	merged := make(openapi3.Parameters, 0, len(pathLevel)+len(opLevel))
	for _, p := range pathLevel {
		if p == nil || p.Value == nil {
			continue
		}
		if !hasParameter(opLevel, p.Value.Name, p.Value.In) {
			merged = append(merged, p)
		}
	}
	for _, p := range opLevel {
		if p == nil || p.Value == nil {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func hasParameter(params openapi3.Parameters, name, in string) bool {
	for _, p := range params {
		if p != nil && p.Value != nil && p.Value.Name == name && p.Value.In == in {
			return true
		}
	}
	return false
}

// GroupByController groups operations by generated controller name: the
// PascalCase first tag when present, else the PascalCase first non-parameter
// path segment, else the default name for untagged root paths. Groups and
// their members keep insertion order.
func GroupByController(ops []PathInfo) []ControllerGroup {
	var order []string
	groups := make(map[string]*ControllerGroup)

	for _, op := range ops {
		name := controllerName(op)
		group, ok := groups[name]
		if !ok {
			group = &ControllerGroup{Name: name}
			groups[name] = group
			order = append(order, name)
		}
		group.Operations = append(group.Operations, op)
	}

	out := make([]ControllerGroup, 0, len(order))
	for _, name := range order {
		out = append(out, *groups[name])
	}
	return out
}

func controllerName(info PathInfo) string {
	if info.Operation != nil && len(info.Operation.Tags) > 0 && info.Operation.Tags[0] != "" {
		return ToPascalCase(info.Operation.Tags[0])
	}
	for _, segment := range strings.Split(info.Path, "/") {
		if segment == "" || strings.Contains(segment, "{") {
			continue
		}
		return ToPascalCase(segment)
	}
	return DefaultControllerName
}
