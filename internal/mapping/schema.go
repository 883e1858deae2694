package mapping

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// documentSchema constrains mapping documents before they are compiled into
// a table. Structural mistakes in a hand-edited file are rejected here with
// a path into the document instead of surfacing later as odd match results.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["fields"],
  "properties": {
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["base_label", "field_key"],
        "properties": {
          "base_label": {"type": "string", "minLength": 1},
          "qualifier": {"type": "string"},
          "field_key": {"type": "string", "minLength": 1, "pattern": "^[a-zA-Z0-9_.-]+$"},
          "patterns": {"type": "array", "items": {"type": "string"}},
          "kind": {"enum": ["number", "text"]}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var compiledDocumentSchema = jsonschema.MustCompileString("mappings.schema.json", documentSchema)

// ValidateDocument checks a YAML mapping document against the schema.
func ValidateDocument(data []byte) error {
	var instance interface{}
	if err := yaml.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("mapping document is not valid YAML: %w", err)
	}
	if err := compiledDocumentSchema.Validate(instance); err != nil {
		return fmt.Errorf("mapping document failed schema validation: %w", err)
	}
	return nil
}
