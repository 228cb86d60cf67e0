// Package bot implements the Telegram front-end: a thin Bot API client,
// the webhook handler, and the per-chat conversation state machine.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flywheels-garage/invoicebot/internal/common"
)

// Update is the inbound webhook payload.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming or replied-to chat message.
type Message struct {
	MessageID      int64    `json:"message_id"`
	Chat           Chat     `json:"chat"`
	Text           string   `json:"text"`
	From           *User    `json:"from,omitempty"`
	ReplyToMessage *Message `json:"reply_to_message,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	IsBot bool `json:"is_bot"`
}

// SendOptions controls message formatting and keyboards.
type SendOptions struct {
	ParseMode     string
	ReplyKeyboard [][]string // one-time reply keyboard rows
	InlineURL     *URLButton // single inline URL button
}

// URLButton is an inline keyboard button opening a URL.
type URLButton struct {
	Text string
	URL  string
}

// Bot is a minimal Telegram Bot API client: the two calls this system needs,
// sendMessage and editMessageText, as plain JSON posts.
type Bot struct {
	token   string
	apiBase string
	http    *http.Client
	log     *slog.Logger
}

func New(cfg common.TelegramConfig, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &Bot{
		token:   cfg.BotToken,
		apiBase: apiBase,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// Configured reports whether a bot token is present.
func (b *Bot) Configured() bool {
	return b.token != ""
}

// SendMessage posts a message and returns its message ID, so the caller can
// later edit it in place (the "please wait" placeholder pattern).
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int64, error) {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	applyOptions(body, opts)

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := b.call(ctx, "sendMessage", body, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// EditMessageText replaces a previously sent message's text in place.
func (b *Bot) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts *SendOptions) error {
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	applyOptions(body, opts)
	return b.call(ctx, "editMessageText", body, nil)
}

func applyOptions(body map[string]any, opts *SendOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		body["parse_mode"] = opts.ParseMode
	}
	if len(opts.ReplyKeyboard) > 0 {
		rows := make([][]map[string]any, 0, len(opts.ReplyKeyboard))
		for _, row := range opts.ReplyKeyboard {
			cells := make([]map[string]any, 0, len(row))
			for _, label := range row {
				cells = append(cells, map[string]any{"text": label})
			}
			rows = append(rows, cells)
		}
		body["reply_markup"] = map[string]any{
			"keyboard":          rows,
			"resize_keyboard":   true,
			"one_time_keyboard": true,
		}
	}
	if opts.InlineURL != nil {
		body["reply_markup"] = map[string]any{
			"inline_keyboard": [][]map[string]any{
				{{"text": opts.InlineURL.Text, "url": opts.InlineURL.URL}},
			},
		}
	}
}

func (b *Bot) call(ctx context.Context, method string, body map[string]any, result any) error {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	url := b.apiBase + "/bot" + b.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		b.log.Error("bot.api.send_error", "req_id", reqID, "method", method, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			b.log.Warn("bot.api.body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		b.log.Error("bot.api.decode_error", "req_id", reqID, "method", method, "status", resp.StatusCode, "error", err)
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		b.log.Error("bot.api.rejected", "req_id", reqID, "method", method, "status", resp.StatusCode, "description", envelope.Description)
		return fmt.Errorf("telegram %s: %s", method, envelope.Description)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}

	b.log.Info("bot.api.ok", "req_id", reqID, "method", method,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
