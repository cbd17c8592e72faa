package openapiir

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMethodModel(t *testing.T) {
	cache, doc := loadTestDocument(t, "petstore.yaml")
	r := NewResolver(cache, doc)
	ops := ExtractOperations(doc)

	t.Run("path parameter operation", func(t *testing.T) {
		m, err := BuildMethodModel(findOperation(t, ops, "getPet"), r)
		require.NoError(t, err)

		assert.Equal(t, "getPet", m.Name)
		assert.Equal(t, "GET", m.Method)
		assert.Equal(t, "/pets/{petId}", m.Path)

		require.Len(t, m.PathParams, 1)
		p := m.PathParams[0]
		assert.Equal(t, "petId", p.ParamName)
		assert.Equal(t, InPath, p.In)
		assert.Equal(t, "simple", p.Style)
		assert.False(t, p.Explode)
		assert.True(t, p.Required)

		require.NotNil(t, m.Response)
		assert.Equal(t, "200", m.Response.Status)
		assert.Equal(t, "application/json", m.Response.ContentType)
		assert.Equal(t, "Pet", m.Response.SchemaName)
		assert.False(t, m.Response.Void)
	})

	t.Run("body operation", func(t *testing.T) {
		m, err := BuildMethodModel(findOperation(t, ops, "createPet"), r)
		require.NoError(t, err)

		require.NotNil(t, m.Body)
		assert.Equal(t, BodyJSON, m.Body.Kind)
		assert.Equal(t, "Pet", m.Body.SchemaName)

		// createPet opts out of the document-level security.
		require.NotNil(t, m.Security)
		assert.Empty(t, m.Security)

		require.NotNil(t, m.Response)
		assert.Equal(t, "201", m.Response.Status)
		assert.Equal(t, "Pet", m.Response.SchemaName)
	})

	t.Run("inherited security and query parameter", func(t *testing.T) {
		m, err := BuildMethodModel(findOperation(t, ops, "listPets"), r)
		require.NoError(t, err)

		require.Len(t, m.QueryParams, 1)
		assert.Equal(t, "limit", m.QueryParams[0].ParamName)
		assert.Equal(t, "form", m.QueryParams[0].Style)
		assert.True(t, m.QueryParams[0].Explode)

		require.Len(t, m.Security, 1)
		assert.Contains(t, m.Security[0], "apiKeyAuth")
	})

	t.Run("void response", func(t *testing.T) {
		m, err := BuildMethodModel(findOperation(t, ops, "deletePet"), r)
		require.NoError(t, err)

		require.NotNil(t, m.Response)
		assert.Equal(t, "204", m.Response.Status)
		assert.True(t, m.Response.Void)
	})
}

func TestBuildMethodModelNilOperation(t *testing.T) {
	r := newTestResolver(t, nil)
	_, err := BuildMethodModel(PathInfo{Path: "/x", Method: "GET"}, r)
	assert.Error(t, err)
}

func TestMethodNameFallback(t *testing.T) {
	info := PathInfo{
		Path:      "/pets/{petId}",
		Method:    "GET",
		Operation: &openapi3.Operation{},
	}
	assert.Equal(t, "getPetsPetId", methodName(info))
}

func TestBuildMethodModelServers(t *testing.T) {
	r := newTestResolver(t, nil)
	servers := openapi3.Servers{{URL: "https://files.example.com/v2"}}

	m, err := BuildMethodModel(PathInfo{
		Path:      "/files",
		Method:    "GET",
		Operation: &openapi3.Operation{OperationID: "listFiles"},
		Servers:   &servers,
	}, r)
	require.NoError(t, err)
	assert.True(t, m.HasServers)
	assert.Equal(t, "https://files.example.com/v2", m.BasePath)
}

func TestExtractOperationsServerPrecedence(t *testing.T) {
	opServers := openapi3.Servers{{URL: "https://op.example.com"}}
	item := &openapi3.PathItem{
		Servers: openapi3.Servers{{URL: "https://item.example.com"}},
		Get:     &openapi3.Operation{OperationID: "withItemServers"},
		Post:    &openapi3.Operation{OperationID: "withOpServers", Servers: &opServers},
	}

	ops := extractPathItem("/things", item, false)
	require.Len(t, ops, 2)

	// Operation-level servers win; the path item's apply otherwise.
	require.NotNil(t, ops[0].Servers)
	assert.Equal(t, "https://item.example.com", (*ops[0].Servers)[0].URL)
	require.NotNil(t, ops[1].Servers)
	assert.Equal(t, "https://op.example.com", (*ops[1].Servers)[0].URL)
}

func TestBuildResponsePrefersJSON(t *testing.T) {
	op := &openapi3.Operation{
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: &openapi3.Response{
				Content: openapi3.Content{
					"application/xml":  &openapi3.MediaType{Schema: stringSchema()},
					"application/json": &openapi3.MediaType{Schema: stringSchema()},
				},
			}}),
		),
	}

	model := buildResponse(op)
	require.NotNil(t, model)
	assert.Equal(t, "application/json", model.ContentType)
}

func TestBuildResponseOther2xx(t *testing.T) {
	op := &openapi3.Operation{
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(202, &openapi3.ResponseRef{Value: &openapi3.Response{
				Content: openapi3.Content{
					"application/json": &openapi3.MediaType{Schema: stringSchema()},
				},
			}}),
		),
	}

	model := buildResponse(op)
	require.NotNil(t, model)
	assert.Equal(t, "202", model.Status)
}
