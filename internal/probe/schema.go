package probe

import "github.com/santhosh-tekuri/jsonschema/v5"

// agentCardSchema is the minimal shape a well-known agent card must
// satisfy for the endpoint to count as verified. It mirrors the
// registry's structural validation bounds.
const agentCardSchema = `{
  "type": "object",
  "required": ["name", "description", "url"],
  "properties": {
    "name": {"type": "string", "minLength": 2, "maxLength": 100},
    "description": {"type": "string", "minLength": 10, "maxLength": 1000},
    "url": {"type": "string", "format": "uri"},
    "version": {"type": "string"},
    "defaultInputModes": {"type": "array", "items": {"type": "string"}},
    "defaultOutputModes": {"type": "array", "items": {"type": "string"}},
    "capabilities": {"type": "object", "additionalProperties": {"type": "boolean"}},
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string"}},
          "examples": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

func compileCardSchema() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("https://a2aregistry.dev/schemas/agent-card", agentCardSchema)
}
