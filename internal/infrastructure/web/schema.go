package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const askSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "question": {"type": "string"}
  },
  "required": ["question"]
}`

var askSchemaLoader = gojsonschema.NewStringLoader(askSchema)

// validateAsk checks a POST /api/ask body against askSchema.
func validateAsk(body []byte) error {
	result, err := gojsonschema.Validate(askSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("invalid request: %s", strings.Join(errs, "; "))
	}
	return nil
}
