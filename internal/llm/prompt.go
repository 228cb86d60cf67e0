package llm

import (
	"encoding/json"
	"strings"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// BuildExtractionPrompt composes the extraction instruction. The prompt, not
// code, performs language detection, spelling correction, and field
// segmentation; the client does no text parsing of its own.
func BuildExtractionPrompt(req ExtractRequest) string {
	parts := []string{
		"You are a helpful assistant that extracts vehicle service details from text, supporting both English and Telugu.",
		"Correct any spelling mistakes and formatting issues so the extracted values are clean and professional.",
	}
	if req.Kind == schema.KindQuotation {
		parts = append(parts, "This is for a QUOTATION, not a final invoice.")
	}
	parts = append(parts,
		"Extract the following fields:",
		"- vehicleNumber: the vehicle number",
		"- customerName: the customer name",
		"- carModel: the car model",
		"- items: a list of items with description, unitPrice, quantity, and total",
		"",
		"Return ONLY JSON that matches this JSON Schema:",
		mustJSON(BuildExtractionSchema()),
		"",
		"If a field is not found, leave it blank. Output item prices as numbers, not strings.",
		"Ensure you can understand text in both English and Telugu.",
		"",
		"Here is the text to extract the information from:",
		req.Text,
	)
	return strings.Join(parts, "\n")
}

// BuildExtractionSchema is the extraction output schema: a document without
// a number field (numbers are assigned by the action layer, never the model).
func BuildExtractionSchema() map[string]any {
	s := schema.BuildDocumentJSONSchema()
	props := s["properties"].(map[string]any)
	delete(props, "invoiceNumber")
	delete(props, "quotationNumber")
	return s
}

// BuildModificationPrompt composes the edit instruction. The model must
// return the full replacement document as a JSON string and must preserve
// the document-number key and value from the original.
func BuildModificationPrompt(req ModifyRequest) string {
	parts := []string{
		"You are an AI assistant that modifies document details (invoice or quotation) based on a user's natural language request.",
		"The current document details may be a JSON object string or a human-readable text summary.",
		"Understand the modification request (add, remove, or update one or more line items) and apply it to the document.",
		"",
		"Return ONLY a JSON object with these fields:",
		`- "modifiedInvoiceDetails": the full modified document as a JSON string`,
		`- "success": boolean, whether the modification was applied`,
		`- "message": a short human-readable description of what was done, e.g. "Successfully added 2 wiper blades."`,
		"",
		"The modified document JSON string MUST preserve the structure of the original:",
		`{"invoiceNumber" or "quotationNumber": string, "vehicleNumber": string, "customerName": string, "carModel": string, "items": [{"description": string, "quantity": number (optional), "unitPrice": number (optional), "total": number}]}`,
		"Recalculate totals where necessary. All numbers in the final JSON must be numbers, not strings.",
		"The 'invoiceNumber' or 'quotationNumber' key and its value MUST match what was in the original details. Never invent a new number.",
		"",
		"Current Document Details:",
		req.DocumentDetails,
		"",
		"User's Modification Request:",
		req.ModificationRequest,
	}
	return strings.Join(parts, "\n")
}

// BuildModificationSchema is the modification response envelope schema.
func BuildModificationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modifiedInvoiceDetails": map[string]any{"type": "string"},
			"success":                map[string]any{"type": "boolean"},
			"message":                map[string]any{"type": "string"},
		},
		"required": []string{"modifiedInvoiceDetails", "success", "message"},
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
