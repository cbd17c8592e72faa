package openapiir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pet", "Pet"},
		{"pet store", "PetStore"},
		{"pet_store", "PetStore"},
		{"pet-store", "PetStore"},
		{"petStore", "PetStore"},
		{"PetStore", "PetStore"},
		{"HTTPServer", "Httpserver"},
		{"crème brûlée", "CremeBrulee"},
		{"2fa", "_2fa"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPascalCase(tt.in))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pet", "pet"},
		{"pet_id", "petId"},
		{"X-Api-Key", "xApiKey"},
		{"get /pets/{petId}", "getPetsPetId"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCamelCase(tt.in))
		})
	}
}
