package bot

import (
	"strings"

	"github.com/doloni/support-bot/internal/domain"
)

// Callback data builders. The wire tags are the keyboard/event contract:
// ParseCallback must understand everything these emit, including data still
// attached to keyboards sent before a redeploy.
func callbackLang(lang string) string       { return "lang:" + lang }
func callbackService(key string) string     { return "svc:" + key }
func callbackDocs(key string) string        { return "info:" + key + ":docs" }
func callbackPrice(key string) string       { return "info:" + key + ":price" }
func callbackWhatsApp(key string) string    { return "wa:" + key }
func callbackTelegramOp(key string) string  { return "tgop:" + key }
func callbackClaim(ticketID string) string  { return "t:claim:" + ticketID }
func callbackReply(ticketID string) string  { return "t:reply:" + ticketID }
func callbackClose(ticketID string) string  { return "t:close:" + ticketID }
func callbackAdminList(status domain.TicketStatus) string {
	return "adm:list:" + string(status)
}

const (
	callbackChooseChannel  = "op:choose"
	callbackOpWhatsApp     = "op:wa"
	callbackOpTelegram     = "op:tg"
	callbackBackMenu       = "back:menu"
	callbackAdminSearchAsk = "adm:search:ask"
)

// ParseCallback decodes inline-button callback data into an event. The
// second return is false for data the engine does not recognize; such
// presses are acknowledged and dropped rather than guessed at.
func ParseCallback(data string, m Meta) (Event, bool) {
	switch data {
	case callbackChooseChannel:
		return ChooseChannelEvent{m}, true
	case callbackOpWhatsApp:
		return WhatsAppEvent{Meta: m}, true
	case callbackOpTelegram:
		return OperatorChatEvent{Meta: m}, true
	case callbackBackMenu:
		return BackToMenuEvent{m}, true
	case callbackAdminSearchAsk:
		return AdminSearchEvent{m}, true
	}

	switch {
	case strings.HasPrefix(data, "lang:"):
		return SelectLanguageEvent{Meta: m, Lang: data[len("lang:"):]}, true
	case strings.HasPrefix(data, "svc:"):
		return SelectServiceEvent{Meta: m, Service: data[len("svc:"):]}, true
	case strings.HasPrefix(data, "wa:"):
		return WhatsAppEvent{Meta: m, Service: data[len("wa:"):]}, true
	case strings.HasPrefix(data, "tgop:"):
		return OperatorChatEvent{Meta: m, Service: data[len("tgop:"):]}, true
	}

	if rest, ok := strings.CutPrefix(data, "info:"); ok {
		service, kind, ok := strings.Cut(rest, ":")
		if !ok || service == "" {
			return nil, false
		}
		switch kind {
		case "docs":
			return ShowDocsEvent{Meta: m, Service: service}, true
		case "price":
			return ShowPriceEvent{Meta: m, Service: service}, true
		}
		return nil, false
	}

	if rest, ok := strings.CutPrefix(data, "t:"); ok {
		action, ticketID, ok := strings.Cut(rest, ":")
		if !ok || !domain.ValidTicketID(ticketID) {
			return nil, false
		}
		switch action {
		case "claim":
			return ClaimEvent{Meta: m, TicketID: ticketID}, true
		case "reply":
			return ReplyEvent{Meta: m, TicketID: ticketID}, true
		case "close":
			return CloseEvent{Meta: m, TicketID: ticketID}, true
		}
		return nil, false
	}

	if rest, ok := strings.CutPrefix(data, "adm:list:"); ok {
		status := domain.TicketStatus(rest)
		if !status.Valid() {
			return nil, false
		}
		return AdminListEvent{Meta: m, Status: status}, true
	}

	return nil, false
}
