package llm

import (
	"context"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// ExtractRequest carries free-form service notes (English or Telugu, often
// noisy) to be turned into a structured document.
type ExtractRequest struct {
	Text string
	Kind schema.DocumentKind
}

// ModifyRequest carries a current document representation plus a
// natural-language edit. DocumentDetails may be a JSON string or the
// human-readable chat summary that originally rendered the document.
type ModifyRequest struct {
	DocumentDetails     string
	ModificationRequest string
}

// ModifyResult is the model's answer to a modification request.
// ModifiedDetails is the full replacement document as a JSON string; the
// caller is responsible for parsing it and falling back to the original on
// failure.
type ModifyResult struct {
	ModifiedDetails string `json:"modifiedInvoiceDetails"`
	Success         bool   `json:"success"`
	Message         string `json:"message"`
}

// Extractor turns free-form notes into a document candidate (no document
// number yet; the action layer assigns one).
type Extractor interface {
	ExtractDocument(ctx context.Context, req ExtractRequest) (schema.Document, []byte /*rawJSON*/, error)
}

// Modifier applies a natural-language edit and returns a replacement
// document, never a patch.
type Modifier interface {
	ModifyDocument(ctx context.Context, req ModifyRequest) (ModifyResult, error)
}
