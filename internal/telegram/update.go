package telegram

import (
	"strings"

	"github.com/doloni/support-bot/internal/bot"
)

// Update is a Telegram webhook payload, trimmed to the fields the engine
// consumes.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *IncomingMsg   `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// IncomingMsg is an inbound message.
type IncomingMsg struct {
	MessageID int64    `json:"message_id"`
	From      *User    `json:"from"`
	Chat      *Chat    `json:"chat"`
	Text      string   `json:"text"`
	Contact   *Contact `json:"contact"`
}

// User is the sender of a message or callback.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// Chat is the conversation an update arrived in.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Contact is a shared phone contact.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id"`
}

// CallbackQuery is an inline-button press.
type CallbackQuery struct {
	ID      string       `json:"id"`
	From    *User        `json:"from"`
	Message *IncomingMsg `json:"message"`
	Data    string       `json:"data"`
}

// DecodeUpdate turns a webhook update into a dispatcher event. The second
// return is false for updates the engine ignores: bot senders, non-private
// messages, unknown commands and callbacks, and update kinds that carry
// neither a message nor a callback.
func DecodeUpdate(u Update) (bot.Event, bool) {
	if cq := u.CallbackQuery; cq != nil && cq.From != nil {
		m := bot.Meta{
			UserID:     cq.From.ID,
			ChatID:     cq.From.ID,
			CallbackID: cq.ID,
			LangHint:   cq.From.LanguageCode,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			m.ChatID = cq.Message.Chat.ID
		}
		return bot.ParseCallback(cq.Data, m)
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return nil, false
	}
	// Group chatter is ignored; the bot converses in private, and group
	// interaction happens through inline buttons only.
	if msg.Chat.Type != "private" {
		return nil, false
	}

	m := bot.Meta{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		LangHint: msg.From.LanguageCode,
	}

	if msg.Contact != nil {
		return bot.ContactEvent{Meta: m, Phone: msg.Contact.PhoneNumber}, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, false
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		// Commands may carry the bot's username in groups and some clients.
		cmd, _, _ = strings.Cut(cmd, "@")
		switch cmd {
		case "/start":
			return bot.StartEvent{Meta: m}, true
		case "/stop":
			return bot.StopEvent{Meta: m}, true
		case "/admin":
			return bot.AdminMenuEvent{Meta: m}, true
		case "/whoami":
			return bot.WhoAmIEvent{Meta: m}, true
		}
		return nil, false
	}

	return bot.TextEvent{Meta: m, Text: msg.Text}, true
}
