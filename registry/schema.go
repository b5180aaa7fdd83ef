// Package registry provides a name-to-tool lookup table and the
// JSON-Schema/argument-decoding glue tools use to declare typed inputs.
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Schema derives a draft-2020-12-subset JSON-Schema object from a Go
// struct using its `json` and `jsonschema` tags, so a tool can declare its
// InputSchema from a typed Go argument struct instead of a hand-written
// map. Call with a pointer to the zero value of the argument type:
//
//	Schema(&addArgs{})
func Schema(argumentsPrototype any) (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(argumentsPrototype)

	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("registry: encode schema: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(encoded, &asMap); err != nil {
		return nil, fmt.Errorf("registry: decode schema: %w", err)
	}
	delete(asMap, "$schema")
	delete(asMap, "$id")
	return asMap, nil
}

// DecodeArguments decodes a normalized arguments map into a typed struct.
func DecodeArguments(arguments map[string]any, target any) error {
	if err := mapstructure.Decode(arguments, target); err != nil {
		return fmt.Errorf("registry: decode arguments: %w", err)
	}
	return nil
}
