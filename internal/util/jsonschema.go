package util

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema returns an inline JSON schema string for the given object type.
// The object should be a pointer to a struct to capture fields and tags. Fields
// without omitempty are required and unknown properties are rejected.
func GenerateJSONSchema(obj any) string {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := r.Reflect(obj)
	schema.Version = ""
	b, _ := json.Marshal(schema)
	return string(b)
}
