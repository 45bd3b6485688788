// Package schema provides JSON schema generation for the command file format.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(reflectSchema(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

func reflectSchema(v interface{}) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
		DoNotReference: true, // oneOf members cannot share $defs
		Mapper:         mapCommandTypes,
	}
	return reflector.Reflect(v)
}

var (
	paramAssignmentType   = reflect.TypeOf(entities.ParamAssignment{})
	hostPropertyValueType = reflect.TypeOf(entities.HostPropertyValue{})
)

// mapCommandTypes supplies schemas for types whose JSON form is not their
// struct layout.
func mapCommandTypes(t reflect.Type) *jsonschema.Schema {
	switch t {
	case paramAssignmentType:
		return &jsonschema.Schema{
			Type: "array",
			PrefixItems: []*jsonschema.Schema{
				{Type: "string", MinLength: ptr(uint64(1))},
				paramValueSchema(),
			},
			MinItems: ptr(uint64(2)),
			MaxItems: ptr(uint64(2)),
		}
	case hostPropertyValueType:
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "string"}, {Type: "number"}},
		}
	}
	return nil
}

func paramValueSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Type: "string"})
	props.Set("v", &jsonschema.Schema{})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"type"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func ptr[T any](v T) *T {
	return &v
}
