// Package actions orchestrates the AI-backed operations: it gates on
// credential presence, post-processes model output, assigns document
// numbers, and reports structured success/failure to the front-ends.
package actions

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/flywheels-garage/invoicebot/internal/common"
	"github.com/flywheels-garage/invoicebot/internal/llm"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// ParseResult is the outcome of a parse (extraction) operation.
type ParseResult struct {
	Success bool             `json:"success"`
	Data    *schema.Document `json:"data"`
	Error   string           `json:"error,omitempty"`
}

// ModifyOutcome is the outcome of a modification operation. On failure Data
// carries the original document when it could be recovered, so callers never
// see a half-modified state.
type ModifyOutcome struct {
	Success bool             `json:"success"`
	Data    *schema.Document `json:"data"`
	Message string           `json:"message"`
}

// Service wires the extraction and modification clients behind the
// credential gate. Both clients may be nil when no credential is configured.
type Service struct {
	cfg       *common.Config
	extractor llm.Extractor
	modifier  llm.Modifier
	log       *slog.Logger
	now       func() time.Time
}

func NewService(cfg *common.Config, extractor llm.Extractor, modifier llm.Modifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		extractor: extractor,
		modifier:  modifier,
		log:       logger,
		now:       time.Now,
	}
}

func (s *Service) aiReady() bool {
	return s.cfg.AIConfigured() && s.extractor != nil && s.modifier != nil
}

// ParseDocument extracts a document from free-form notes, validates it
// (warn-only), and assigns a fresh document number.
func (s *Service) ParseDocument(ctx context.Context, text string, kind schema.DocumentKind) ParseResult {
	if !s.aiReady() {
		s.log.Error("actions.parse.not_configured")
		return ParseResult{Success: false, Error: common.APIKeyErrorMessage}
	}

	doc, raw, err := s.extractor.ExtractDocument(ctx, llm.ExtractRequest{Text: text, Kind: kind})
	if err != nil {
		s.log.Error("actions.parse.extract_error", "error", err)
		return ParseResult{Success: false, Error: "Failed to parse details: " + err.Error()}
	}

	// Validation is an observability aid, not a gate: log and keep the
	// model's best-effort data.
	if issues, vErr := schema.ValidateDocument(raw); vErr != nil {
		s.log.Warn("actions.parse.validate_error", "error", vErr)
	} else if len(issues) > 0 {
		s.log.Warn("actions.parse.validation_issues", "issues", len(issues), "first", issues[0].String())
	}

	doc.Kind = kind
	doc.Number = NextNumber(kind, s.now())
	if doc.Items == nil {
		doc.Items = []schema.LineItem{}
	}

	s.log.Info("actions.parse.ok", "kind", kind.String(), "number", doc.Number, "items", len(doc.Items))
	return ParseResult{Success: true, Data: &doc}
}

// ModifyDocument applies a natural-language edit to the given document
// representation. Any failure, including unparseable model output, degrades
// to returning the original document unchanged with Success=false.
func (s *Service) ModifyDocument(ctx context.Context, documentDetails, modificationRequest string) ModifyOutcome {
	if !s.aiReady() {
		s.log.Error("actions.modify.not_configured")
		return ModifyOutcome{Success: false, Message: common.APIKeyErrorMessage}
	}

	original := parseDocumentDetails(documentDetails)

	res, err := s.modifier.ModifyDocument(ctx, llm.ModifyRequest{
		DocumentDetails:     documentDetails,
		ModificationRequest: modificationRequest,
	})
	if err != nil {
		s.log.Error("actions.modify.model_error", "error", err)
		return ModifyOutcome{Success: false, Data: original, Message: "Failed to modify invoice: " + err.Error()}
	}
	if !res.Success || res.ModifiedDetails == "" {
		msg := res.Message
		if msg == "" {
			msg = "Failed to modify invoice."
		}
		s.log.Warn("actions.modify.model_declined", "message", msg)
		return ModifyOutcome{Success: false, Data: original, Message: msg}
	}

	cleaned, _, sErr := llm.NormalizeDocumentJSON([]byte(res.ModifiedDetails), s.log)
	if sErr != nil {
		s.log.Error("actions.modify.invalid_json", "error", sErr)
		return ModifyOutcome{Success: false, Data: original, Message: "Failed to modify invoice: model returned invalid JSON"}
	}
	var modified schema.Document
	if err := json.Unmarshal(cleaned, &modified); err != nil {
		s.log.Error("actions.modify.unmarshal_failed", "error", err)
		return ModifyOutcome{Success: false, Data: original, Message: "Failed to modify invoice: model returned invalid JSON"}
	}

	// The document number is carried over from the original regardless of
	// what the model returned.
	if original != nil && original.Number != "" {
		modified.Kind = original.Kind
		modified.Number = original.Number
	}
	if modified.Items == nil {
		modified.Items = []schema.LineItem{}
	}

	s.log.Info("actions.modify.ok", "number", modified.Number, "items", len(modified.Items), "message", res.Message)
	return ModifyOutcome{Success: true, Data: &modified, Message: res.Message}
}

// parseDocumentDetails best-effort decodes the caller-supplied document
// representation. Chat text summaries (non-JSON) yield nil.
func parseDocumentDetails(details string) *schema.Document {
	var doc schema.Document
	if err := json.Unmarshal([]byte(details), &doc); err != nil {
		return nil
	}
	return &doc
}
