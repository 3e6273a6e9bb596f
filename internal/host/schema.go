package host

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// worldSchema is the embedded JSON Schema for world files.
const worldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["users"],
  "properties": {
    "users": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "flags": {"type": "object"}
        }
      }
    }
  }
}`

// validateWorld checks raw world file bytes against the embedded schema.
// If the schema cannot be compiled it falls back to minimal structural
// checks, so validation never depends on external files.
func validateWorld(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("world.schema.json", strings.NewReader(worldSchema)); err != nil {
		return validateMinimal(doc)
	}
	schema, err := compiler.Compile("world.schema.json")
	if err != nil {
		return validateMinimal(doc)
	}
	return schema.Validate(doc)
}

// validateMinimal performs structural checks without JSON Schema.
func validateMinimal(doc any) error {
	obj, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("world file must be an object")
	}
	users, ok := obj["users"].([]any)
	if !ok {
		return fmt.Errorf("users: missing required field")
	}
	for i, raw := range users {
		u, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("users[%d]: must be an object", i)
		}
		if id, _ := u["id"].(string); id == "" {
			return fmt.Errorf("users[%d].id: missing required field", i)
		}
	}
	return nil
}
