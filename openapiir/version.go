package openapiir

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Version represents supported OpenAPI specification versions.
type Version string

const (
	VersionV2  Version = "2.0"
	VersionV3  Version = "3.0"
	VersionV31 Version = "3.1"
	VersionV32 Version = "3.2"
)

// IsSwagger reports whether the version is OpenAPI 2.0.
func (v Version) IsSwagger() bool { return v == VersionV2 }

// versionProbe holds just enough of a document to identify its version.
type versionProbe struct {
	Swagger string `json:"swagger" yaml:"swagger"`
	OpenAPI string `json:"openapi" yaml:"openapi"`
}

// DetectVersion reads the version from the `swagger` or `openapi` field of a
// raw JSON or YAML document. JSON is attempted first, then YAML.
func DetectVersion(data []byte) (Version, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return "", fmt.Errorf("document is neither valid JSON nor valid YAML: %w", err)
		}
	}

	switch {
	case probe.Swagger == "2.0":
		return VersionV2, nil
	case strings.HasPrefix(probe.OpenAPI, "3.0"):
		return VersionV3, nil
	case strings.HasPrefix(probe.OpenAPI, "3.1"):
		return VersionV31, nil
	case strings.HasPrefix(probe.OpenAPI, "3.2"):
		return VersionV32, nil
	}

	return "", fmt.Errorf("unsupported OpenAPI version: swagger=%q, openapi=%q", probe.Swagger, probe.OpenAPI)
}
