package openapiir

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func operationIDs(ops []PathInfo) []string {
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.Operation.OperationID)
	}
	return ids
}

func TestExtractOperations(t *testing.T) {
	_, doc := loadTestDocument(t, "petstore.yaml")

	ops := ExtractOperations(doc)
	require.Len(t, ops, 5)

	// Paths come out sorted, methods in fixed order within a path.
	assert.Equal(t, []string{"listPets", "createPet", "getPet", "deletePet", "listOrders"}, operationIDs(ops))
	assert.Equal(t, "GET", ops[0].Method)
	assert.Equal(t, "POST", ops[1].Method)
	assert.Equal(t, "/pets", ops[0].Path)
	assert.Equal(t, "/pets/{petId}", ops[2].Path)
	for _, op := range ops {
		assert.False(t, op.IsWebhook)
	}
}

func TestExtractOperationsIncludesWebhooks(t *testing.T) {
	_, doc := loadTestDocument(t, "events.yaml")

	ops := ExtractOperations(doc)
	require.Len(t, ops, 1)
	assert.True(t, ops[0].IsWebhook)
	assert.Equal(t, "petCreated", ops[0].Path)
	assert.Equal(t, "POST", ops[0].Method)
	assert.Equal(t, "onPetCreated", ops[0].Operation.OperationID)
}

func TestExtractOperationsInheritsPathParameters(t *testing.T) {
	_, doc := loadTestDocument(t, "petstore.yaml")

	ops := ExtractOperations(doc)
	listPets := ops[0]
	require.Equal(t, "listPets", listPets.Operation.OperationID)

	// The path-item-level limit parameter flows onto the operation.
	require.Len(t, listPets.Parameters, 1)
	assert.Equal(t, "limit", listPets.Parameters[0].Value.Name)
	assert.Equal(t, "query", listPets.Parameters[0].Value.In)
}

func TestMergeParametersOperationWins(t *testing.T) {
	pathLevel := openapi3.Parameters{
		{Value: &openapi3.Parameter{Name: "limit", In: "query"}},
		{Value: &openapi3.Parameter{Name: "trace", In: "header"}},
	}
	opLevel := openapi3.Parameters{
		{Value: &openapi3.Parameter{Name: "limit", In: "query", Required: true}},
	}

	merged := mergeParameters(pathLevel, opLevel)
	require.Len(t, merged, 2)
	assert.Equal(t, "trace", merged[0].Value.Name)
	assert.Equal(t, "limit", merged[1].Value.Name)
	assert.True(t, merged[1].Value.Required)
}

func TestGroupByController(t *testing.T) {
	_, doc := loadTestDocument(t, "petstore.yaml")

	groups := GroupByController(ExtractOperations(doc))
	require.Len(t, groups, 2)

	assert.Equal(t, "Pets", groups[0].Name)
	assert.Len(t, groups[0].Operations, 4)

	// listOrders is untagged; its first path segment names the controller.
	assert.Equal(t, "Store", groups[1].Name)
	assert.Len(t, groups[1].Operations, 1)
}

func TestControllerName(t *testing.T) {
	tests := []struct {
		name string
		info PathInfo
		want string
	}{
		{
			"first tag wins",
			PathInfo{Path: "/store/orders", Operation: &openapi3.Operation{Tags: []string{"order-admin", "other"}}},
			"OrderAdmin",
		},
		{
			"path segment fallback",
			PathInfo{Path: "/widgets/{id}", Operation: &openapi3.Operation{}},
			"Widgets",
		},
		{
			"parameter segments skipped",
			PathInfo{Path: "/{tenant}/widgets", Operation: &openapi3.Operation{}},
			"Widgets",
		},
		{
			"root path defaults",
			PathInfo{Path: "/{id}", Operation: &openapi3.Operation{}},
			DefaultControllerName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, controllerName(tt.info))
		})
	}
}
