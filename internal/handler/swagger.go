package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/horologium/ledger-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var openAPIServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://ledger.horologium.shop/api/v1", Description: "Shop"},
}

// schemaFields are the Swagger 2.0 parameter keys that move under "schema" in OpenAPI 3.0
var schemaFields = []string{"type", "format", "enum", "default", "minimum", "maximum", "items"}

// transformRefs rewrites $ref from #/definitions/ to #/components/schemas/
// and converts Swagger 2.0 parameters to OpenAPI 3.0 format
func transformRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		_, hasIn := v["in"]
		_, hasName := v["name"]
		if hasIn && hasName {
			return transformParameter(v)
		}

		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			ref, isString := value.(string)
			if key == "$ref" && isString {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = transformRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

// transformParameter converts a Swagger 2.0 parameter to OpenAPI 3.0 format.
// Body parameters are left untouched.
func transformParameter(param map[string]interface{}) map[string]interface{} {
	if param["in"] == "body" {
		return param
	}

	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range schemaFields {
		val, ok := param[field]
		if !ok {
			continue
		}
		if field == "items" {
			val = transformRefs(val)
		}
		schema[field] = val
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}

	return result
}

// convertToOpenAPI3 converts a Swagger 2.0 document into an OpenAPI 3.0 spec
func convertToOpenAPI3(doc string) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return nil, fmt.Errorf("parse swagger doc: %w", err)
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})
	transformedPaths, _ := transformRefs(paths).(map[string]interface{})

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = transformRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    openAPIServers,
		Paths:      transformedPaths,
		Components: components,
	}, nil
}

// ServeOpenAPI3Spec serves the registered swagger doc converted to OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "Failed to read API documentation")
	}

	spec, err := convertToOpenAPI3(doc)
	if err != nil {
		log.Error().Err(err).Msg("Failed to convert swagger doc")
		return NewInternalError(c, "Failed to read API documentation")
	}

	return c.JSON(http.StatusOK, spec)
}
