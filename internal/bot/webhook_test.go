package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheels-garage/invoicebot/internal/actions"
	"github.com/flywheels-garage/invoicebot/internal/common"
	"github.com/flywheels-garage/invoicebot/internal/llm"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

type stubAI struct {
	extractCalls int
	modifyCalls  int
	lastModify   llm.ModifyRequest

	extractDoc schema.Document
	modifyRes  llm.ModifyResult
}

func (s *stubAI) ExtractDocument(_ context.Context, req llm.ExtractRequest) (schema.Document, []byte, error) {
	s.extractCalls++
	doc := s.extractDoc
	doc.Kind = req.Kind
	raw, _ := json.Marshal(doc)
	return doc, raw, nil
}

func (s *stubAI) ModifyDocument(_ context.Context, req llm.ModifyRequest) (llm.ModifyResult, error) {
	s.modifyCalls++
	s.lastModify = req
	return s.modifyRes, nil
}

type webhookFixture struct {
	handler *Handler
	router  *gin.Engine
	ai      *stubAI
	tgCalls *[]tgCall
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls []tgCall
	stub := newTelegramStub(t, &calls)
	t.Cleanup(stub.Close)

	cfg := common.LoadConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.APIBase = stub.URL
	cfg.Server.PublicURL = "https://flywheels.example.com"

	ai := &stubAI{
		extractDoc: schema.Document{
			VehicleNumber: "AP05ED1314",
			CustomerName:  "Babji garu",
			CarModel:      "Skoda Octavia",
			Items:         []schema.LineItem{{Description: "Oil filter", Total: 650}},
		},
	}

	svc := actions.NewService(cfg, ai, ai, nil)
	h := NewHandler(cfg, New(cfg.Telegram, nil), svc, nil)

	r := gin.New()
	r.POST("/api/telegram/webhook", h.Handle)
	return &webhookFixture{handler: h, router: r, ai: ai, tgCalls: &calls}
}

func (f *webhookFixture) post(t *testing.T, update any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func textUpdate(chatID int64, text string) Update {
	return Update{Message: &Message{MessageID: 1, Chat: Chat{ID: chatID}, Text: text}}
}

func TestWebhookUnconfiguredBot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := common.LoadConfig()
	cfg.Telegram.BotToken = ""
	cfg.LLM.APIKey = "k"
	h := NewHandler(cfg, New(cfg.Telegram, nil), actions.NewService(cfg, nil, nil, nil), nil)

	r := gin.New()
	r.POST("/api/telegram/webhook", h.Handle)
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestWebhookUnconfiguredAI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := common.LoadConfig()
	cfg.Telegram.BotToken = "t"
	cfg.LLM.APIKey = ""
	h := NewHandler(cfg, New(cfg.Telegram, nil), actions.NewService(cfg, nil, nil, nil), nil)

	r := gin.New()
	r.POST("/api/telegram/webhook", h.Handle)
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Gemini API key")
}

func TestWebhookStartCommand(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.post(t, textUpdate(10, "/start"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	calls := *f.tgCalls
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Body["text"], "Welcome to Flywheels bot")
	markup := calls[0].Body["reply_markup"].(map[string]any)
	assert.NotNil(t, markup["keyboard"])
	assert.Equal(t, StateIdle, f.handler.sessions.Get(10).State)
}

func TestWebhookKindSelection(t *testing.T) {
	f := newWebhookFixture(t)

	f.post(t, textUpdate(10, "Quotation"))
	conv := f.handler.sessions.Get(10)
	assert.Equal(t, StateAwaitingNotes, conv.State)
	assert.Equal(t, schema.KindQuotation, conv.Kind)
}

func TestWebhookNotesFlow(t *testing.T) {
	f := newWebhookFixture(t)

	f.post(t, textUpdate(10, "Invoice"))
	w := f.post(t, textUpdate(10, "Ap05ed1314\nSkoda octavia\nBabji garu\nOil filter - 650"))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, f.ai.extractCalls)

	calls := *f.tgCalls
	// "Invoice" prompt, placeholder, edit
	require.Len(t, calls, 3)
	assert.Equal(t, "Please send the service notes.", calls[0].Body["text"])
	assert.Contains(t, calls[1].Body["text"], "please wait")
	edited := calls[2].Body["text"].(string)
	assert.Contains(t, edited, "Invoice Details Parsed Successfully")
	assert.Contains(t, edited, "*Invoice Number:*")
	assert.Contains(t, edited, "Oil filter: 650")
	assert.Contains(t, edited, "reply to this message")
	markup := calls[2].Body["reply_markup"].(map[string]any)
	assert.NotNil(t, markup["inline_keyboard"], "hand-off button present when PUBLIC_URL is set")

	conv := f.handler.sessions.Get(10)
	assert.Equal(t, StateDocumentShown, conv.State)
	assert.Equal(t, int64(42), conv.MessageID)
	assert.Contains(t, conv.Snapshot, "invoiceNumber")
}

func TestWebhookKeywordInfersQuotation(t *testing.T) {
	f := newWebhookFixture(t)

	// no prior kind selection; keyword decides
	f.post(t, textUpdate(11, "quote for brake pads, Babji garu, AP05ED1314, Skoda"))
	conv := f.handler.sessions.Get(11)
	assert.Equal(t, StateDocumentShown, conv.State)
	assert.Equal(t, schema.KindQuotation, conv.Kind)
	assert.Contains(t, conv.Snapshot, "quotationNumber")
}

func TestWebhookMissingFields(t *testing.T) {
	f := newWebhookFixture(t)
	f.ai.extractDoc = schema.Document{VehicleNumber: "AP05ED1314"}

	f.post(t, textUpdate(10, "just an oil filter"))

	calls := *f.tgCalls
	require.Len(t, calls, 2)
	edited := calls[1].Body["text"].(string)
	assert.Contains(t, edited, "missing some essential details")
	assert.Contains(t, edited, "*Customer Name*")
	assert.Contains(t, edited, "*Car Model*")
	assert.NotEqual(t, StateDocumentShown, f.handler.sessions.Get(10).State)
}

func TestWebhookReplyModificationUsesSnapshot(t *testing.T) {
	f := newWebhookFixture(t)
	f.ai.modifyRes = llm.ModifyResult{
		ModifiedDetails: `{"invoiceNumber":"2043","vehicleNumber":"AP05ED1314","customerName":"Babji garu","carModel":"Skoda Octavia","items":[]}`,
		Success:         true,
		Message:         "Successfully removed Oil filter.",
	}

	f.post(t, textUpdate(10, "Ap05ed1314\nSkoda octavia\nBabji garu\nOil filter - 650"))
	snapshot := f.handler.sessions.Get(10).Snapshot
	require.NotEmpty(t, snapshot)

	reply := Update{Message: &Message{
		MessageID:      2,
		Chat:           Chat{ID: 10},
		Text:           "remove oil filter",
		ReplyToMessage: &Message{MessageID: 42, From: &User{IsBot: true}, Text: "rendered text"},
	}}
	w := f.post(t, reply)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, f.ai.modifyCalls)
	assert.Equal(t, snapshot, f.ai.lastModify.DocumentDetails, "stored JSON snapshot used, not rendered text")
	assert.Equal(t, "remove oil filter", f.ai.lastModify.ModificationRequest)

	calls := *f.tgCalls
	edited := calls[len(calls)-1].Body["text"].(string)
	assert.Contains(t, edited, "Invoice Details Updated")
}

func TestWebhookReplyToOlderBotMessageFallsBackToText(t *testing.T) {
	f := newWebhookFixture(t)
	f.ai.modifyRes = llm.ModifyResult{
		ModifiedDetails: `{"invoiceNumber":"2001","vehicleNumber":"V","customerName":"C","carModel":"M","items":[]}`,
		Success:         true,
		Message:         "done",
	}

	renderedText := "*Invoice Details Parsed Successfully*:\n\n*Invoice Number:* 2001\n..."
	reply := Update{Message: &Message{
		MessageID:      3,
		Chat:           Chat{ID: 99},
		Text:           "remove engine oil",
		ReplyToMessage: &Message{MessageID: 7, From: &User{IsBot: true}, Text: renderedText},
	}}
	f.post(t, reply)

	assert.Equal(t, 1, f.ai.modifyCalls)
	assert.Equal(t, renderedText, f.ai.lastModify.DocumentDetails)
}

func TestWebhookModificationFailureKeepsThreadAlive(t *testing.T) {
	f := newWebhookFixture(t)
	f.ai.modifyRes = llm.ModifyResult{ModifiedDetails: `{broken`, Success: true, Message: "done"}

	f.post(t, textUpdate(10, "Ap05ed1314\nSkoda octavia\nBabji garu\nOil filter - 650"))
	reply := Update{Message: &Message{
		MessageID:      2,
		Chat:           Chat{ID: 10},
		Text:           "remove oil filter",
		ReplyToMessage: &Message{MessageID: 42, From: &User{IsBot: true}, Text: "x"},
	}}
	w := f.post(t, reply)
	assert.Equal(t, http.StatusOK, w.Code)

	calls := *f.tgCalls
	edited := calls[len(calls)-1].Body["text"].(string)
	assert.Contains(t, edited, "Sorry, I couldn't apply that change")
}

func TestWebhookIgnoresEmptyUpdates(t *testing.T) {
	f := newWebhookFixture(t)
	w := f.post(t, Update{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, *f.tgCalls)
}
