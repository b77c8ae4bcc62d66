package skill

import (
	"github.com/invopop/jsonschema"
)

// JSONSchema reflects the canonical document shape into a JSON Schema.
// Editors and CI pipelines can use it to lint spec.yaml files without
// running the full validator.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&Document{})
}
