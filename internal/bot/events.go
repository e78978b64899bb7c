// Package bot contains the conversation engine: the closed event set inbound
// updates are decoded into, the dispatcher that drives the client and
// operator state machines, and the keyboards both sides see. The package is
// transport-agnostic; Telegram specifics live in the telegram package behind
// the Transport interface.
package bot

import "github.com/doloni/support-bot/internal/domain"

// Meta carries the sender context every event shares. ChatID is where the
// reply goes (the private chat for direct messages, possibly the operators
// group for button presses there). CallbackID is non-empty for button events
// and must be acknowledged.
type Meta struct {
	UserID     int64
	ChatID     int64
	CallbackID string

	// LangHint is the Telegram client language code, used only before the
	// user has picked a language explicitly.
	LangHint string
}

// Event is the closed set of inputs the dispatcher understands. Decoding
// happens once, at the edge; the dispatcher switches over concrete types and
// never inspects wire strings.
type Event interface {
	meta() Meta
}

func (m Meta) meta() Meta { return m }

// StartEvent is the /start command.
type StartEvent struct{ Meta }

// StopEvent is the operator /stop command leaving active-chat mode.
type StopEvent struct{ Meta }

// AdminMenuEvent is the /admin command.
type AdminMenuEvent struct{ Meta }

// WhoAmIEvent is the /whoami diagnostic command.
type WhoAmIEvent struct{ Meta }

// ContactEvent is a shared phone contact.
type ContactEvent struct {
	Meta
	Phone string
}

// TextEvent is plain free text in a private chat. Its meaning depends on the
// sender's current state: onboarding answer, ticket message, operator relay,
// or admin search query.
type TextEvent struct {
	Meta
	Text string
}

// SelectLanguageEvent picks the interface language.
type SelectLanguageEvent struct {
	Meta
	Lang string
}

// BackToMenuEvent returns to the service menu.
type BackToMenuEvent struct{ Meta }

// SelectServiceEvent opens one service's submenu.
type SelectServiceEvent struct {
	Meta
	Service string
}

// ShowDocsEvent asks for a service's required-documents sheet.
type ShowDocsEvent struct {
	Meta
	Service string
}

// ShowPriceEvent asks for a service's indicative price.
type ShowPriceEvent struct {
	Meta
	Service string
}

// WhatsAppEvent requests a WhatsApp handoff link. Service is empty for the
// generic "talk to an operator" path.
type WhatsAppEvent struct {
	Meta
	Service string
}

// OperatorChatEvent arms ticket compose mode: the user's next message opens
// or continues a ticket. Service is empty for the generic path.
type OperatorChatEvent struct {
	Meta
	Service string
}

// ChooseChannelEvent shows the WhatsApp-or-Telegram choice.
type ChooseChannelEvent struct{ Meta }

// ClaimEvent is an operator pressing the claim button on a ticket.
type ClaimEvent struct {
	Meta
	TicketID string
}

// ReplyEvent is an operator opening active-chat mode on a ticket.
type ReplyEvent struct {
	Meta
	TicketID string
}

// CloseEvent is an operator closing a ticket.
type CloseEvent struct {
	Meta
	TicketID string
}

// AdminListEvent lists tickets in one state.
type AdminListEvent struct {
	Meta
	Status domain.TicketStatus
}

// AdminSearchEvent arms the admin ticket-ID search prompt.
type AdminSearchEvent struct{ Meta }
