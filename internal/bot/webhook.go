package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flywheels-garage/invoicebot/internal/actions"
	"github.com/flywheels-garage/invoicebot/internal/common"
	"github.com/flywheels-garage/invoicebot/internal/render"
	"github.com/flywheels-garage/invoicebot/internal/schema"
)

const (
	welcomeText        = "Welcome to Flywheels bot, select your action"
	askNotesText       = "Please send the service notes."
	askQuoteNotesText  = "Please send the service notes for the quotation."
	parsingWaitText    = "Parsing your invoice details, please wait..."
	modifyingWaitText  = "Applying your changes, please wait..."
	editHintText       = "(To make changes, simply reply to this message with your request, e.g., \"remove engine oil\")"
	noPublicURLText    = "(Set the PUBLIC_URL environment variable to enable PDF link generation)"
	viewButtonText     = "📄 View and Print PDF"
	parsedTitle        = "Invoice Details Parsed Successfully"
	quoteParsedTitle   = "Quotation Details Parsed Successfully"
	updatedTitle       = "Invoice Details Updated"
	quoteUpdatedTitle  = "Quotation Details Updated"
	documentNumberMark = "Number:"
)

// Handler processes Telegram webhook updates.
type Handler struct {
	cfg      *common.Config
	bot      *Bot
	actions  *actions.Service
	sessions *Sessions
	log      *slog.Logger
}

func NewHandler(cfg *common.Config, bot *Bot, svc *actions.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		bot:      bot,
		actions:  svc,
		sessions: NewSessions(),
		log:      logger,
	}
}

// Handle is the webhook endpoint. Once the bot and credential are
// configured it always answers {"status":"ok"}, independent of whether the
// downstream chat reply succeeded.
func (h *Handler) Handle(c *gin.Context) {
	if h.bot == nil || !h.bot.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Telegram bot not configured."})
		return
	}
	if !h.cfg.AIConfigured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gemini API key not configured."})
		return
	}

	var update Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.Warn("bot.webhook.bad_payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	h.dispatch(c.Request.Context(), update.Message)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) dispatch(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	h.log.Info("bot.webhook.update", "chat_id", chatID, "text_len", len(text), "is_reply", msg.ReplyToMessage != nil)

	if details, ok := h.modificationTarget(chatID, msg); ok {
		h.handleModification(ctx, chatID, details, text)
		return
	}

	switch text {
	case "/start":
		h.sessions.SetIdle(chatID)
		_, err := h.bot.SendMessage(ctx, chatID, welcomeText, &SendOptions{
			ReplyKeyboard: [][]string{{"Invoice", "Quotation"}},
		})
		if err != nil {
			h.log.Error("bot.webhook.send_error", "chat_id", chatID, "error", err)
		}
		return
	case "Invoice":
		h.sessions.SetAwaitingNotes(chatID, schema.KindInvoice)
		if _, err := h.bot.SendMessage(ctx, chatID, askNotesText, nil); err != nil {
			h.log.Error("bot.webhook.send_error", "chat_id", chatID, "error", err)
		}
		return
	case "Quotation":
		h.sessions.SetAwaitingNotes(chatID, schema.KindQuotation)
		if _, err := h.bot.SendMessage(ctx, chatID, askQuoteNotesText, nil); err != nil {
			h.log.Error("bot.webhook.send_error", "chat_id", chatID, "error", err)
		}
		return
	}

	h.handleNotes(ctx, chatID, text)
}

// modificationTarget decides whether the message is an edit request against
// a previously shown document, and returns the document representation to
// modify. The stored JSON snapshot is preferred; replies to an older bot
// message that still carries a document-number marker fall back to that
// message's text (the modification prompt accepts both forms).
func (h *Handler) modificationTarget(chatID int64, msg *Message) (string, bool) {
	if msg.ReplyToMessage == nil {
		return "", false
	}
	conv := h.sessions.Get(chatID)
	if conv.State == StateDocumentShown && msg.ReplyToMessage.MessageID == conv.MessageID {
		return conv.Snapshot, true
	}
	replied := msg.ReplyToMessage
	if replied.From != nil && replied.From.IsBot && strings.Contains(replied.Text, documentNumberMark) {
		return replied.Text, true
	}
	return "", false
}

func (h *Handler) handleModification(ctx context.Context, chatID int64, details, request string) {
	placeholderID, err := h.bot.SendMessage(ctx, chatID, modifyingWaitText, nil)
	if err != nil {
		h.log.Error("bot.webhook.send_error", "chat_id", chatID, "error", err)
		return
	}

	result := h.actions.ModifyDocument(ctx, details, request)
	if !result.Success || result.Data == nil {
		h.editOrLog(ctx, chatID, placeholderID, "Sorry, I couldn't apply that change. Error: "+result.Message, nil)
		return
	}

	doc := *result.Data
	title := updatedTitle
	if doc.Kind == schema.KindQuotation {
		title = quoteUpdatedTitle
	}
	h.showDocument(ctx, chatID, placeholderID, doc, title)
}

func (h *Handler) handleNotes(ctx context.Context, chatID int64, text string) {
	kind := h.notesKind(chatID, text)

	placeholderID, err := h.bot.SendMessage(ctx, chatID, parsingWaitText, nil)
	if err != nil {
		h.log.Error("bot.webhook.send_error", "chat_id", chatID, "error", err)
		return
	}

	result := h.actions.ParseDocument(ctx, text, kind)
	if !result.Success || result.Data == nil {
		h.editOrLog(ctx, chatID, placeholderID, "Sorry, I couldn't parse that. Error: "+result.Error, nil)
		return
	}

	doc := *result.Data
	if missing := doc.MissingFields(); len(missing) > 0 {
		for i, f := range missing {
			missing[i] = "*" + f + "*"
		}
		reply := "I've parsed what I could, but I'm missing some essential details: " +
			strings.Join(missing, ", ") +
			".\n\nPlease send your service notes again, including the missing information."
		h.editOrLog(ctx, chatID, placeholderID, reply, &SendOptions{ParseMode: "Markdown"})
		return
	}

	title := parsedTitle
	if kind == schema.KindQuotation {
		title = quoteParsedTitle
	}
	h.showDocument(ctx, chatID, placeholderID, doc, title)
}

// notesKind picks the document kind for raw notes: the awaiting-notes state
// wins; otherwise a "quote"/"quotation" keyword in the text selects a
// quotation, defaulting to invoice.
func (h *Handler) notesKind(chatID int64, text string) schema.DocumentKind {
	conv := h.sessions.Get(chatID)
	if conv.State == StateAwaitingNotes {
		return conv.Kind
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "quotation") || strings.Contains(lower, "quote") {
		return schema.KindQuotation
	}
	return schema.KindInvoice
}

func (h *Handler) showDocument(ctx context.Context, chatID, placeholderID int64, doc schema.Document, title string) {
	text := render.ChatMessage(doc, title)
	opts := &SendOptions{ParseMode: "Markdown"}

	if url := render.HandoffURL(h.cfg.Server.PublicURL, doc); url != "" {
		opts.InlineURL = &URLButton{Text: viewButtonText, URL: url}
	} else {
		text += "\n\n" + noPublicURLText
	}
	text += "\n\n" + editHintText

	h.editOrLog(ctx, chatID, placeholderID, text, opts)

	snapshot, err := json.Marshal(doc)
	if err != nil {
		h.log.Error("bot.webhook.snapshot_error", "chat_id", chatID, "error", err)
		return
	}
	h.sessions.SetDocumentShown(chatID, doc.Kind, string(snapshot), placeholderID)
}

func (h *Handler) editOrLog(ctx context.Context, chatID, messageID int64, text string, opts *SendOptions) {
	if err := h.bot.EditMessageText(ctx, chatID, messageID, text, opts); err != nil {
		h.log.Error("bot.webhook.edit_error", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}
