package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// alertSchema validates externally submitted alerts before ingestion.
// Clients may supply a stable id so retried deliveries deduplicate;
// timestamps and origin are assigned server-side.
const alertSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["ip", "type", "severity", "description", "location"],
  "additionalProperties": false,
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "ip": {"type": "string", "minLength": 1},
    "type": {"type": "string", "minLength": 1},
    "severity": {"type": "string", "enum": ["High", "Medium", "Low"]},
    "description": {"type": "string", "minLength": 1},
    "location": {"type": "string", "minLength": 1},
    "details": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "target_service": {"type": "string"},
        "payload_signature": {"type": "string"}
      }
    }
  }
}`

var compiledAlertSchema = gojsonschema.NewStringLoader(alertSchema)

// validateAlertPayload checks a raw ingest body against the alert schema
// and returns the first violation.
func validateAlertPayload(body []byte) error {
	result, err := gojsonschema.Validate(compiledAlertSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("invalid alert: %s", first.String())
	}
	return nil
}
