package openapiir

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecuritySchemes(t *testing.T) {
	_, doc := loadTestDocument(t, "petstore.yaml")

	schemes := SecuritySchemes(doc.OAS)
	require.Len(t, schemes, 2)

	apiKey := schemes[0]
	assert.Equal(t, "apiKeyAuth", apiKey.Key)
	assert.Equal(t, "apiKey", apiKey.Type)
	assert.Equal(t, "X-Api-Key", apiKey.Name)
	assert.Equal(t, "header", apiKey.In)

	oauth := schemes[1]
	assert.Equal(t, "oauth", oauth.Key)
	assert.Equal(t, "oauth2", oauth.Type)
	require.Len(t, oauth.Flows, 1)
	flow := oauth.Flows[0]
	assert.Equal(t, "authorizationCode", flow.Kind)
	assert.Equal(t, "https://auth.example.com/authorize", flow.AuthorizationURL)
	assert.Equal(t, "https://auth.example.com/token", flow.TokenURL)
	assert.Equal(t, []string{"read:pets", "write:pets"}, flow.Scopes)
}

func TestSecuritySchemesAbsent(t *testing.T) {
	assert.Nil(t, SecuritySchemes(&openapi3.T{}))
}

func TestSecuritySchemesHTTPBearer(t *testing.T) {
	doc := &openapi3.T{Components: &openapi3.Components{
		SecuritySchemes: openapi3.SecuritySchemes{
			"bearerAuth": {Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			}},
			"oidc": {Value: &openapi3.SecurityScheme{
				Type:             "openIdConnect",
				OpenIdConnectUrl: "https://auth.example.com/.well-known/openid-configuration",
			}},
		},
	}}

	schemes := SecuritySchemes(doc)
	require.Len(t, schemes, 2)
	assert.Equal(t, "bearerAuth", schemes[0].Key)
	assert.Equal(t, "bearer", schemes[0].Scheme)
	assert.Equal(t, "JWT", schemes[0].BearerFormat)
	assert.Equal(t, "oidc", schemes[1].Key)
	assert.Equal(t, "https://auth.example.com/.well-known/openid-configuration", schemes[1].OpenIDConnectURL)
}

func TestEffectiveSecurity(t *testing.T) {
	_, doc := loadTestDocument(t, "petstore.yaml")
	ops := ExtractOperations(doc)

	t.Run("operation inherits document security", func(t *testing.T) {
		op := findOperation(t, ops, "listPets")
		reqs := EffectiveSecurity(doc.OAS, op.Operation)
		require.Len(t, reqs, 1)
		assert.Contains(t, reqs[0], "apiKeyAuth")
	})

	t.Run("explicit empty array disables auth", func(t *testing.T) {
		op := findOperation(t, ops, "createPet")
		reqs := EffectiveSecurity(doc.OAS, op.Operation)
		require.NotNil(t, reqs)
		assert.Empty(t, reqs)
	})
}

func TestEffectiveSecurityScopesCopied(t *testing.T) {
	doc := &openapi3.T{
		Security: openapi3.SecurityRequirements{
			{"oauth": []string{"read:pets"}},
		},
	}

	reqs := EffectiveSecurity(doc, &openapi3.Operation{})
	require.Len(t, reqs, 1)
	reqs[0]["oauth"][0] = "mutated"
	assert.Equal(t, "read:pets", doc.Security[0]["oauth"][0])
}
