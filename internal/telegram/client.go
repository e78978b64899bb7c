// Package telegram is the Bot API edge: a minimal HTTP client for the
// outbound methods the engine needs (sendMessage, answerCallbackQuery,
// webhook management) and the inbound update decoding that turns raw webhook
// payloads into dispatcher events. No business logic lives here.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/doloni/support-bot/internal/bot"
)

// DefaultAPIBase is the production Bot API endpoint. Overridable for tests
// and for local Bot API servers.
const DefaultAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API over plain HTTP. It implements
// bot.Transport.
type Client struct {
	token   string
	apiBase string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient builds a Bot API client. apiBase falls back to DefaultAPIBase
// when empty; timeout bounds every single API call.
func NewClient(token, apiBase string, timeout time.Duration, log zerolog.Logger) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:   token,
		apiBase: apiBase,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Wire shapes for outbound payloads.

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type replyButton struct {
	Text           string `json:"text"`
	RequestContact bool   `json:"request_contact,omitempty"`
}

type replyKeyboard struct {
	Keyboard        [][]replyButton `json:"keyboard"`
	ResizeKeyboard  bool            `json:"resize_keyboard"`
	OneTimeKeyboard bool            `json:"one_time_keyboard"`
}

type removeKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type sendMessageReq struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

type answerCallbackReq struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

type setWebhookReq struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

// apiResponse is the Bot API envelope; only the error half matters here.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage implements bot.Transport. Messages are sent with HTML parse
// mode, matching the markup embedded in the string tables.
func (c *Client) SendMessage(ctx context.Context, chatID int64, msg bot.Message) error {
	req := sendMessageReq{
		ChatID:    chatID,
		Text:      msg.Text,
		ParseMode: "HTML",
	}
	switch {
	case len(msg.Buttons) > 0:
		kb := inlineKeyboard{}
		for _, row := range msg.Buttons {
			wire := make([]inlineButton, 0, len(row))
			for _, b := range row {
				wire = append(wire, inlineButton{Text: b.Text, CallbackData: b.Data, URL: b.URL})
			}
			kb.InlineKeyboard = append(kb.InlineKeyboard, wire)
		}
		req.ReplyMarkup = kb
	case msg.ContactButton != "":
		req.ReplyMarkup = replyKeyboard{
			Keyboard:        [][]replyButton{{{Text: msg.ContactButton, RequestContact: true}}},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	case msg.RemoveReplyKeyboard:
		req.ReplyMarkup = removeKeyboard{RemoveKeyboard: true}
	}
	return c.call(ctx, "sendMessage", req)
}

// AnswerCallback implements bot.Transport.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackReq{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// SetWebhook registers url as the webhook target. The secret token is echoed
// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header on every
// delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	return c.call(ctx, "setWebhook", setWebhookReq{URL: url, SecretToken: secret})
}

// DeleteWebhook unregisters the webhook, typically on shutdown.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return fmt.Errorf("%s: status %d, undecodable response", method, resp.StatusCode)
	}
	if !api.OK {
		c.log.Debug().Str("method", method).Int("code", api.ErrorCode).
			Str("description", api.Description).Msg("bot api call rejected")
		return fmt.Errorf("%s: api error %d: %s", method, api.ErrorCode, api.Description)
	}
	return nil
}
