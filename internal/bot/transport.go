package bot

import "context"

// Button is one inline-keyboard button. Exactly one of Data or URL should be
// set; Telegram rejects buttons carrying both.
type Button struct {
	Text string
	Data string
	URL  string
}

// Message is a chat-platform-agnostic outbound message. The dispatcher
// composes these; the transport turns them into Bot API payloads.
type Message struct {
	Text string

	// Buttons is the inline keyboard, one slice per row.
	Buttons [][]Button

	// ContactButton, when non-empty, renders a one-time reply keyboard with
	// a single contact-request button carrying this label.
	ContactButton string

	// RemoveReplyKeyboard clears any reply keyboard left on the client's
	// screen (the contact button after onboarding, typically).
	RemoveReplyKeyboard bool
}

// Transport delivers dispatcher output to the chat platform. The production
// implementation is the Telegram Bot API client; tests use an in-memory fake.
type Transport interface {
	// SendMessage sends msg to the chat (a user's private chat or the
	// operators group).
	SendMessage(ctx context.Context, chatID int64, msg Message) error

	// AnswerCallback acknowledges a callback query, optionally with a toast
	// (alert=false) or a modal alert (alert=true).
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
