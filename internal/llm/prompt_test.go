package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

func TestBuildExtractionPromptMentionsBothLanguages(t *testing.T) {
	p := BuildExtractionPrompt(ExtractRequest{Text: "Oil filter - 650", Kind: schema.KindInvoice})
	assert.Contains(t, p, "English and Telugu")
	assert.Contains(t, p, "Oil filter - 650")
	assert.Contains(t, p, "vehicleNumber")
	assert.NotContains(t, p, "QUOTATION")
}

func TestBuildExtractionPromptQuotationVariant(t *testing.T) {
	p := BuildExtractionPrompt(ExtractRequest{Text: "brake pads", Kind: schema.KindQuotation})
	assert.Contains(t, p, "QUOTATION, not a final invoice")
}

func TestBuildExtractionSchemaHasNoNumberFields(t *testing.T) {
	s := BuildExtractionSchema()
	props := s["properties"].(map[string]any)
	_, hasInvoice := props["invoiceNumber"]
	_, hasQuote := props["quotationNumber"]
	assert.False(t, hasInvoice, "the model never assigns numbers")
	assert.False(t, hasQuote)

	// the shared document schema is not mutated by the deletion
	docProps := schema.BuildDocumentJSONSchema()["properties"].(map[string]any)
	_, still := docProps["invoiceNumber"]
	assert.True(t, still)
}

func TestBuildModificationPromptPreservesNumberInstruction(t *testing.T) {
	p := BuildModificationPrompt(ModifyRequest{
		DocumentDetails:     `{"invoiceNumber":"2043"}`,
		ModificationRequest: "remove engine oil",
	})
	assert.Contains(t, p, "MUST match what was in the original details")
	assert.Contains(t, p, "modifiedInvoiceDetails")
	assert.Contains(t, p, `{"invoiceNumber":"2043"}`)
	assert.True(t, strings.Contains(p, "remove engine oil"))
}
