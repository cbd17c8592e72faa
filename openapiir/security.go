package openapiir

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// SecuritySchemes normalizes components.securitySchemes into a deterministic
// list keyed by scheme name.
func SecuritySchemes(doc *openapi3.T) []SecurityScheme {
	if doc.Components == nil || doc.Components.SecuritySchemes == nil {
		return nil
	}

	names := make([]string, 0, len(doc.Components.SecuritySchemes))
	for name := range doc.Components.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SecurityScheme, 0, len(names))
	for _, name := range names {
		ref := doc.Components.SecuritySchemes[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		s := ref.Value

		scheme := SecurityScheme{Key: name, Type: s.Type}
		switch s.Type {
		case "http":
			scheme.Scheme = s.Scheme
			scheme.BearerFormat = s.BearerFormat
		case "apiKey":
			scheme.Name = s.Name
			scheme.In = s.In
		case "oauth2":
			scheme.Flows = oauthFlows(s.Flows)
		case "openIdConnect":
			scheme.OpenIDConnectURL = s.OpenIdConnectUrl
		}
		out = append(out, scheme)
	}
	return out
}

func oauthFlows(flows *openapi3.OAuthFlows) []OAuthFlowModel {
	if flows == nil {
		return nil
	}

	var out []OAuthFlowModel
	add := func(kind string, flow *openapi3.OAuthFlow) {
		if flow == nil {
			return
		}
		scopes := make([]string, 0, len(flow.Scopes))
		for scope := range flow.Scopes {
			scopes = append(scopes, scope)
		}
		sort.Strings(scopes)
		out = append(out, OAuthFlowModel{
			Kind:             kind,
			AuthorizationURL: flow.AuthorizationURL,
			TokenURL:         flow.TokenURL,
			RefreshURL:       flow.RefreshURL,
			Scopes:           scopes,
		})
	}
	add("implicit", flows.Implicit)
	add("password", flows.Password)
	add("clientCredentials", flows.ClientCredentials)
	add("authorizationCode", flows.AuthorizationCode)
	return out
}

// EffectiveSecurity computes the security requirements that apply to one
// operation: the operation's own security array when present, else the
// document's global security. An explicitly empty operation-level array means
// "no auth required" and is distinct from unset.
func EffectiveSecurity(doc *openapi3.T, op *openapi3.Operation) []Requirement {
	var requirements openapi3.SecurityRequirements
	if op != nil && op.Security != nil {
		requirements = *op.Security
	} else {
		requirements = doc.Security
	}

	out := make([]Requirement, 0, len(requirements))
	for _, req := range requirements {
		requirement := make(Requirement, len(req))
		for scheme, scopes := range req {
			copied := make([]string, len(scopes))
			copy(copied, scopes)
			requirement[scheme] = copied
		}
		out = append(out, requirement)
	}
	return out
}
