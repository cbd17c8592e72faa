// Package openapiir turns OpenAPI/Swagger documents into a framework-agnostic
// intermediate representation: resolved schemas, validation rules, operation
// and parameter serialization models, security requirements and form control
// trees. Code generators consume the IR without re-deriving OpenAPI semantics.
package openapiir

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// RuleKind identifies one validation rule variant.
type RuleKind string

const (
	RuleRequired      RuleKind = "required"
	RuleConst         RuleKind = "const"
	RuleMinLength     RuleKind = "minLength"
	RuleMaxLength     RuleKind = "maxLength"
	RuleMin           RuleKind = "min"
	RuleMax           RuleKind = "max"
	RuleExclusiveMin  RuleKind = "exclusiveMinimum"
	RuleExclusiveMax  RuleKind = "exclusiveMaximum"
	RulePattern       RuleKind = "pattern"
	RuleEmail         RuleKind = "email"
	RuleMultipleOf    RuleKind = "multipleOf"
	RuleUniqueItems   RuleKind = "uniqueItems"
	RuleMinItems      RuleKind = "minItems"
	RuleMaxItems      RuleKind = "maxItems"
	RuleMinProperties RuleKind = "minProperties"
	RuleMaxProperties RuleKind = "maxProperties"
	RuleContains      RuleKind = "contains"
	RuleNot           RuleKind = "not"
)

// Rule is one extracted validation rule. Kind selects the variant; only the
// payload fields that variant needs are populated.
type Rule struct {
	Kind        RuleKind    `json:"kind"`
	Bound       *float64    `json:"bound,omitempty"`   // min/max/exclusive bounds, multipleOf
	Length      *uint64     `json:"length,omitempty"`  // length/item/property counts
	Pattern     string      `json:"pattern,omitempty"` // pattern and implied-encoding rules
	Const       interface{} `json:"const,omitempty"`
	ContainsMin *uint64     `json:"min,omitempty"` // contains only
	ContainsMax *uint64     `json:"max,omitempty"` // contains only
	Not         []Rule      `json:"not,omitempty"` // nested rules for the not variant
}

// ParamLocation is the OpenAPI parameter location.
type ParamLocation string

const (
	InPath   ParamLocation = "path"
	InQuery  ParamLocation = "query"
	InHeader ParamLocation = "header"
	InCookie ParamLocation = "cookie"
)

// SerializationJSON marks a parameter whose value must be JSON-encoded before
// style-based serialization because the chosen style cannot represent it.
const SerializationJSON = "json"

// ParamSerialization describes how one path/query/header/cookie parameter is
// rendered onto the wire.
type ParamSerialization struct {
	ParamName         string        `json:"paramName"`    // code-safe name
	OriginalName      string        `json:"originalName"` // wire name
	In                ParamLocation `json:"in"`
	Style             string        `json:"style"`
	Explode           bool          `json:"explode"`
	AllowReserved     bool          `json:"allowReserved,omitempty"`
	Required          bool          `json:"required,omitempty"`
	SerializationLink string        `json:"serializationLink,omitempty"`
	Rules             []Rule        `json:"rules,omitempty"`

	Schema *openapi3.SchemaRef `json:"-" yaml:"-"`
}

// BodyKind tags the request body variant.
type BodyKind string

const (
	BodyJSON            BodyKind = "json"
	BodyXML             BodyKind = "xml"
	BodyMultipart       BodyKind = "multipart"
	BodyURLEncoded      BodyKind = "urlencoded"
	BodyEncodedFormData BodyKind = "encodedFormData"
	BodyRaw             BodyKind = "raw"
)

// MultipartPart describes one property of a multipart/form-data body.
// JSONEncoded parts are serialized as application/json blobs.
type MultipartPart struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	JSONEncoded bool   `json:"jsonEncoded,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// EncodedField carries per-property serialization for urlencoded bodies that
// declare an explicit encoding map.
type EncodedField struct {
	Name    string `json:"name"`
	Style   string `json:"style"`
	Explode bool   `json:"explode"`
}

// BodyModel is the discriminated request-body variant of an operation.
type BodyModel struct {
	Kind        BodyKind        `json:"kind"`
	ParamName   string          `json:"paramName"`
	ContentType string          `json:"contentType"`
	Required    bool            `json:"required,omitempty"`
	SchemaName  string          `json:"schemaName,omitempty"`
	XMLRoot     string          `json:"xmlRoot,omitempty"` // xml only
	Parts       []MultipartPart `json:"parts,omitempty"`   // multipart only
	Fields      []EncodedField  `json:"fields,omitempty"`  // encodedFormData only

	Schema *openapi3.SchemaRef `json:"-" yaml:"-"`
}

// Requirement maps a security scheme name to the scopes it demands. The scope
// list is empty for non-OAuth2 schemes.
type Requirement map[string][]string

// ResponseModel describes the success response of an operation.
type ResponseModel struct {
	Status      string `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	SchemaName  string `json:"schemaName,omitempty"`
	Void        bool   `json:"void,omitempty"`

	Schema *openapi3.SchemaRef `json:"-" yaml:"-"`
}

// MethodModel aggregates everything a service-class emitter needs for one
// operation.
type MethodModel struct {
	Name         string               `json:"name"`
	OperationID  string               `json:"operationId,omitempty"`
	Method       string               `json:"method"`
	Path         string               `json:"path"`
	Summary      string               `json:"summary,omitempty"`
	Description  string               `json:"description,omitempty"`
	Deprecated   bool                 `json:"deprecated,omitempty"`
	PathParams   []ParamSerialization `json:"pathParams,omitempty"`
	QueryParams  []ParamSerialization `json:"queryParams,omitempty"`
	HeaderParams []ParamSerialization `json:"headerParams,omitempty"`
	CookieParams []ParamSerialization `json:"cookieParams,omitempty"`
	Body         *BodyModel           `json:"body,omitempty"`
	Security     []Requirement        `json:"security"`
	HasServers   bool                 `json:"hasServers,omitempty"`
	BasePath     string               `json:"basePath,omitempty"`
	Response     *ResponseModel       `json:"response,omitempty"`
}

// PathInfo is one flattened (path, method) operation record.
type PathInfo struct {
	Path      string `json:"path"`
	Method    string `json:"method"`
	IsWebhook bool   `json:"isWebhook,omitempty"`

	Operation  *openapi3.Operation `json:"-" yaml:"-"`
	Parameters openapi3.Parameters `json:"-" yaml:"-"` // path-item and operation params, merged
	Servers    *openapi3.Servers   `json:"-" yaml:"-"` // operation-level, else path-item-level
}

// ControllerGroup collects the operations of one generated controller in
// specification order.
type ControllerGroup struct {
	Name       string     `json:"name"`
	Operations []PathInfo `json:"operations"`
}

// OAuthFlowModel is a normalized OAuth2 flow.
type OAuthFlowModel struct {
	Kind             string   `json:"kind"` // implicit, password, clientCredentials, authorizationCode
	AuthorizationURL string   `json:"authorizationUrl,omitempty"`
	TokenURL         string   `json:"tokenUrl,omitempty"`
	RefreshURL       string   `json:"refreshUrl,omitempty"`
	Scopes           []string `json:"scopes,omitempty"`
}

// SecurityScheme is a normalized components.securitySchemes entry.
type SecurityScheme struct {
	Key              string           `json:"key"`
	Type             string           `json:"type"`
	Scheme           string           `json:"scheme,omitempty"`       // http
	BearerFormat     string           `json:"bearerFormat,omitempty"` // http bearer
	Name             string           `json:"name,omitempty"`         // apiKey
	In               string           `json:"in,omitempty"`           // apiKey
	OpenIDConnectURL string           `json:"openIdConnectUrl,omitempty"`
	Flows            []OAuthFlowModel `json:"flows,omitempty"` // oauth2
}

// ControlType classifies a form control node.
type ControlType string

const (
	ControlValue ControlType = "control"
	ControlGroup ControlType = "group"
	ControlArray ControlType = "array"
)

// FormControl is one node of the recursive form model built for a root
// schema. Groups carry child controls, arrays carry a single item template,
// and cycle stops carry the name of the previously generated interface.
type FormControl struct {
	Name                  string                   `json:"name"`
	OriginalName          string                   `json:"originalName,omitempty"`
	Type                  ControlType              `json:"type"`
	Rules                 []Rule                   `json:"rules,omitempty"`
	Controls              []FormControl            `json:"controls,omitempty"`
	ItemControl           *FormControl             `json:"itemControl,omitempty"`
	NestedInterface       string                   `json:"nestedFormInterface,omitempty"`
	DiscriminatorProperty string                   `json:"discriminatorProperty,omitempty"`
	Options               []PolymorphicOptionModel `json:"options,omitempty"`
}

// PolymorphicOptionModel is one concrete subtype of a discriminated union.
type PolymorphicOptionModel struct {
	DiscriminatorValue string        `json:"discriminatorValue"`
	SchemaName         string        `json:"schemaName"`
	Controls           []FormControl `json:"controls,omitempty"`
}

// FieldShape is one field of a generated type.
type FieldShape struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName,omitempty"`
	Kind         string `json:"kind"` // string, integer, number, boolean, array, object
	Format       string `json:"format,omitempty"`
	Ref          string `json:"ref,omitempty"` // named schema for object/array element fields
	Required     bool   `json:"required,omitempty"`
	Nullable     bool   `json:"nullable,omitempty"`
	ReadOnly     bool   `json:"readOnly,omitempty"`
}

// TypeShape is the name/shape model of one named schema, consumed by type
// emitters.
type TypeShape struct {
	Name          string       `json:"name"`
	Kind          string       `json:"kind"`
	Fields        []FieldShape `json:"fields,omitempty"`
	Discriminator string       `json:"discriminator,omitempty"`
	Options       []string     `json:"options,omitempty"` // polymorphic option schema names
}
