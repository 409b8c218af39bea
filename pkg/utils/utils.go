package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GetSchemaFromConfig reflects a JSON schema from any config struct. Used
// for strategy configs, which unlike the engine config need no custom type
// mapping.
func GetSchemaFromConfig(config any) (string, error) {
	schema := jsonschema.Reflect(config)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
