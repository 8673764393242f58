package share

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed response.schema.json
var responseSchema []byte

var responseSchemaLoader = gojsonschema.NewBytesLoader(responseSchema)

// SchemaError lists the violations found while validating a Response.
type SchemaError struct {
	Details []string
}

func (e *SchemaError) Error() string {
	return "share response does not match schema:\n" + strings.Join(e.Details, "\n")
}

// ValidateResponse checks resp against the published share response schema:
// string values and MIME types, well-formed item groups and known roles.
func ValidateResponse(resp Response) error {
	if resp.Items == nil {
		resp.Items = []Item{}
	}
	doc, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal share response: %w", err)
	}

	result, err := gojsonschema.Validate(responseSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate share response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("  - %s", desc))
	}
	return &SchemaError{Details: details}
}
