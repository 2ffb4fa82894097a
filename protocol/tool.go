package protocol

// Tool describes a function a model may call. Parameters is a JSON Schema
// object describing the arguments.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ObjectSchema builds a JSON Schema object from property schemas and the
// names of required properties.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Property builds a single property schema.
func Property(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}
