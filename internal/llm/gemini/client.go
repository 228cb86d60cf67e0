package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/flywheels-garage/invoicebot/internal/llm"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// Client implements llm.Extractor and llm.Modifier against the Gemini API.
type Client struct {
	cfg    Config
	client *genai.Client
	log    *slog.Logger
}

var (
	_ llm.Extractor = (*Client)(nil)
	_ llm.Modifier  = (*Client)(nil)
)

// NewClient creates a Gemini-backed client. The API key is required here;
// callers that want graceful degradation gate on credential presence before
// constructing the client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{cfg: cfg, client: gc, log: orDefaultLogger(logger)}, nil
}

// ExtractDocument sends free-form notes to the model and decodes the JSON
// answer into a document candidate. Schema validation failures are
// non-fatal: the issues are logged and the best-effort decode is returned.
func (c *Client) ExtractDocument(ctx context.Context, req llm.ExtractRequest) (schema.Document, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"kind", req.Kind.String(),
		"text_len", len(req.Text),
	)

	content, err := c.generateJSON(ctx, rid, llm.BuildExtractionPrompt(req))
	if err != nil {
		c.log.Error("llm.extract.generate_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return schema.Document{}, nil, err
	}

	cleaned, _, sErr := llm.NormalizeDocumentJSON(content, c.log)
	if sErr != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", sErr, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return schema.Document{}, content, fmt.Errorf("decode model output: %w", sErr)
	}

	// Warn-only: keep best-effort data even when the schema complains.
	if issues, vErr := schema.ValidateDocument(cleaned); vErr != nil {
		c.log.Warn("llm.extract.validate_error", "req_id", rid, "error", vErr)
	} else if len(issues) > 0 {
		c.log.Warn("llm.extract.schema_issues", "req_id", rid, "issues", issueStrings(issues))
	}

	var doc schema.Document
	if err := json.Unmarshal(cleaned, &doc); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return schema.Document{}, cleaned, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.Kind = req.Kind
	doc.Number = ""

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"vehicle", doc.VehicleNumber,
		"customer", doc.CustomerName,
		"model_name", doc.CarModel,
		"items", len(doc.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, cleaned, nil
}

// ModifyDocument sends the current document plus the edit instruction and
// decodes the response envelope. The inner document JSON string is returned
// as-is; the action layer parses it and falls back on failure.
func (c *Client) ModifyDocument(ctx context.Context, req llm.ModifyRequest) (llm.ModifyResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.modify.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"details_len", len(req.DocumentDetails),
		"request_len", len(req.ModificationRequest),
	)

	content, err := c.generateJSON(ctx, rid, llm.BuildModificationPrompt(req))
	if err != nil {
		c.log.Error("llm.modify.generate_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ModifyResult{}, err
	}

	var out llm.ModifyResult
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.modify.decode_error",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ModifyResult{}, fmt.Errorf("decode modification envelope: %w", err)
	}

	c.log.Info("llm.modify.ok",
		"req_id", rid,
		"success", out.Success,
		"message", out.Message,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, rid, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx,
		c.cfg.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(c.cfg.Temperature),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.Error("llm.generate.empty_response", "req_id", rid)
		return nil, fmt.Errorf("empty model response")
	}
	return []byte(stripCodeFences(text)), nil
}

// stripCodeFences removes a ```json ... ``` wrapper some models still emit
// despite the JSON response mode.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func issueStrings(issues []schema.FieldIssue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}
