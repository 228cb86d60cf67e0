package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldIssue is a single field-level validation finding.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i FieldIssue) String() string {
	return i.Field + ": " + i.Message
}

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is embedded in the model prompt and used locally to
// validate the model's output.
func BuildDocumentJSONSchema() map[string]any {
	itemProps := map[string]any{
		"description": map[string]any{"type": "string", "minLength": 1},
		"quantity":    numberProp(),
		"unitPrice":   numberProp(),
		"total":       numberProp(),
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoiceNumber":   map[string]any{"type": "string"},
			"quotationNumber": map[string]any{"type": "string"},
			"vehicleNumber":   map[string]any{"type": "string", "minLength": 1},
			"customerName":    map[string]any{"type": "string", "minLength": 1},
			"carModel":        map[string]any{"type": "string", "minLength": 1},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": itemProps,
					"required":   []string{"description", "total"},
				},
			},
		},
		"required": []string{"vehicleNumber", "customerName", "carModel", "items"},
	}
}

func numberProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0}
}

// ValidateDocument checks candidate JSON against the document schema and
// reports field-level issues. Validation is an observability aid, not a
// gate: callers log the issues and keep the best-effort data.
func ValidateDocument(data []byte) ([]FieldIssue, error) {
	return validateAgainst(BuildDocumentJSONSchema(), data)
}

func validateAgainst(schemaMap map[string]any, data []byte) ([]FieldIssue, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	err = compiled.Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if ok := asValidationError(err, &ve); ok {
		return flattenIssues(ve), nil
	}
	return []FieldIssue{{Field: "/", Message: err.Error()}}, nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

func flattenIssues(ve *jsonschema.ValidationError) []FieldIssue {
	if len(ve.Causes) == 0 {
		field := ve.InstanceLocation
		if field == "" {
			field = "/"
		}
		return []FieldIssue{{Field: field, Message: ve.Message}}
	}
	var out []FieldIssue
	for _, c := range ve.Causes {
		out = append(out, flattenIssues(c)...)
	}
	return out
}
