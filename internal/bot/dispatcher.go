package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/doloni/support-bot/internal/content"
	"github.com/doloni/support-bot/internal/domain"
	"github.com/doloni/support-bot/internal/services"
	"github.com/doloni/support-bot/internal/session"
	"github.com/doloni/support-bot/internal/sysutil"
)

// Dispatcher routes decoded events through the client and operator state
// machines. It owns no state of its own: durable state lives behind the
// services, transient state in the session store, and everything outbound
// goes through the Transport.
type Dispatcher struct {
	Transport Transport
	Sessions  *session.Store
	Reg       *services.RegistrationService
	Tickets   *services.TicketService
	WhatsApp  content.WhatsAppEndpoints

	// Operators is the allow-list of operator user IDs.
	Operators map[int64]struct{}
	// OperatorsGroupID is the shared dispatch group; 0 disables group
	// notifications (logged, not fatal).
	OperatorsGroupID int64

	Log zerolog.Logger
}

// Handle processes one event to completion. Errors returned here are
// infrastructure failures (store or transport); user-level conflicts are
// translated into localized replies and return nil.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case StartEvent:
		return d.handleStart(ctx, e)
	case StopEvent:
		return d.handleStop(ctx, e)
	case AdminMenuEvent:
		return d.handleAdminMenu(ctx, e)
	case WhoAmIEvent:
		return d.handleWhoAmI(ctx, e)
	case SelectLanguageEvent:
		return d.handleSelectLanguage(ctx, e)
	case ContactEvent:
		return d.handleContact(ctx, e)
	case TextEvent:
		return d.handleText(ctx, e)
	case BackToMenuEvent:
		return d.handleBackToMenu(ctx, e)
	case SelectServiceEvent:
		return d.handleSelectService(ctx, e)
	case ShowDocsEvent:
		return d.handleShowInfo(ctx, e.Meta, e.Service, "docs_title", content.Docs)
	case ShowPriceEvent:
		return d.handleShowInfo(ctx, e.Meta, e.Service, "price_title", content.Price)
	case ChooseChannelEvent:
		return d.handleChooseChannel(ctx, e)
	case WhatsAppEvent:
		return d.handleWhatsApp(ctx, e)
	case OperatorChatEvent:
		return d.handleOperatorChat(ctx, e)
	case ClaimEvent:
		return d.handleClaim(ctx, e)
	case ReplyEvent:
		return d.handleReply(ctx, e)
	case CloseEvent:
		return d.handleClose(ctx, e)
	case AdminListEvent:
		return d.handleAdminList(ctx, e)
	case AdminSearchEvent:
		return d.handleAdminSearch(ctx, e)
	}
	droppedEvents.Inc()
	return nil
}

// RecordDroppedUpdate counts an inbound update that never became an event.
func RecordDroppedUpdate() { droppedEvents.Inc() }

func (d *Dispatcher) isOperator(userID int64) bool {
	_, ok := d.Operators[userID]
	return ok
}

// lang resolves the interface language: the stored choice when present,
// otherwise the Telegram client hint, otherwise Italian.
func (d *Dispatcher) lang(ctx context.Context, userID int64, hint string) string {
	c, err := d.Reg.Client(ctx, userID)
	if err == nil && c.Lang != "" {
		return content.NormalizeLang(c.Lang)
	}
	return content.NormalizeLang(hint)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, msg Message) error {
	return d.Transport.SendMessage(ctx, chatID, msg)
}

func (d *Dispatcher) answer(ctx context.Context, m Meta, text string, alert bool) error {
	if m.CallbackID == "" {
		return nil
	}
	if err := d.Transport.AnswerCallback(ctx, m.CallbackID, text, alert); err != nil {
		d.Log.Warn().Err(err).Str("callback_id", m.CallbackID).Msg("answer callback failed")
	}
	return nil
}

// ----- onboarding and menus -----

func (d *Dispatcher) handleStart(ctx context.Context, e StartEvent) error {
	c, err := d.Reg.Client(ctx, e.UserID)
	if err != nil || c.Lang == "" {
		prompt := content.T("it", "choose_lang") + "\n" + content.T("uk", "choose_lang")
		return d.send(ctx, e.ChatID, Message{Text: prompt, Buttons: kbLang()})
	}

	lang := content.NormalizeLang(c.Lang)
	if c.Registered() {
		return d.showMainMenu(ctx, e.ChatID, lang)
	}
	d.Reg.Begin(e.UserID)
	return d.send(ctx, e.ChatID, Message{
		Text:          content.T(lang, "welcome_need_phone"),
		ContactButton: content.T(lang, "btn_share_phone"),
	})
}

func (d *Dispatcher) showMainMenu(ctx context.Context, chatID int64, lang string) error {
	if err := d.send(ctx, chatID, Message{
		Text:                content.T(lang, "welcome_registered"),
		RemoveReplyKeyboard: true,
	}); err != nil {
		return err
	}
	return d.send(ctx, chatID, Message{Text: content.T(lang, "menu"), Buttons: kbMainMenu(lang)})
}

func (d *Dispatcher) handleSelectLanguage(ctx context.Context, e SelectLanguageEvent) error {
	lang := e.Lang
	if lang != "it" && lang != "uk" {
		lang = "it"
	}
	if err := d.Reg.SetLanguage(ctx, e.UserID, lang); err != nil {
		d.answer(ctx, e.Meta, "", false)
		return err
	}
	d.answer(ctx, e.Meta, "OK", false)

	c, err := d.Reg.Client(ctx, e.UserID)
	if err == nil && c.Registered() {
		return d.showMainMenu(ctx, e.ChatID, lang)
	}
	d.Reg.Begin(e.UserID)
	return d.send(ctx, e.ChatID, Message{
		Text:          content.T(lang, "welcome_need_phone"),
		ContactButton: content.T(lang, "btn_share_phone"),
	})
}

func (d *Dispatcher) handleContact(ctx context.Context, e ContactEvent) error {
	if d.Sessions.RegistrationStep(e.UserID) != session.StepAwaitingPhone {
		return nil
	}
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if err := d.Reg.SubmitContact(ctx, e.UserID, e.Phone); err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "use_share_phone")})
		}
		return err
	}
	d.Log.Debug().Int64("user", e.UserID).
		Str("phone", sysutil.MaskPhone(e.Phone)).Msg("contact received")
	return d.send(ctx, e.ChatID, Message{
		Text:                content.T(lang, "enter_surname"),
		RemoveReplyKeyboard: true,
	})
}

// ----- free text -----

func (d *Dispatcher) handleText(ctx context.Context, e TextEvent) error {
	if d.isOperator(e.UserID) {
		return d.operatorText(ctx, e)
	}
	return d.clientText(ctx, e)
}

func (d *Dispatcher) clientText(ctx context.Context, e TextEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)

	switch d.Sessions.RegistrationStep(e.UserID) {
	case session.StepAwaitingPhone:
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "use_share_phone")})

	case session.StepAwaitingSurname:
		if _, err := d.Reg.SubmitText(ctx, e.UserID, e.Text); err != nil {
			if errors.Is(err, services.ErrEmptyMessage) {
				return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "enter_surname")})
			}
			return err
		}
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "enter_name")})

	case session.StepAwaitingName:
		if _, err := d.Reg.SubmitText(ctx, e.UserID, e.Text); err != nil {
			if errors.Is(err, services.ErrEmptyMessage) {
				return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "enter_name")})
			}
			return err
		}
		name := strings.TrimSpace(e.Text)
		if err := d.send(ctx, e.ChatID, Message{Text: content.T(lang, "done", "name", name)}); err != nil {
			return err
		}
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "menu"), Buttons: kbMainMenu(lang)})
	}

	if service, ok := d.Sessions.TakeCompose(e.UserID); ok {
		return d.forwardClientMessage(ctx, e, lang, service, true)
	}

	if _, err := d.Tickets.OpenForUser(ctx, e.UserID); err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			return d.send(ctx, e.ChatID, Message{
				Text:    content.T(lang, "select_service"),
				Buttons: kbMainMenu(lang),
			})
		}
		return err
	}
	return d.forwardClientMessage(ctx, e, lang, "", false)
}

// forwardClientMessage appends the client's text to their conversation
// (opening a ticket if needed) and notifies the operator side. ackClient is
// set on the explicit compose path, where the client expects a confirmation
// with the ticket ID; follow-up messages on an open ticket stay silent.
func (d *Dispatcher) forwardClientMessage(ctx context.Context, e TextEvent, lang, service string, ackClient bool) error {
	t, created, err := d.Tickets.AppendFromUser(ctx, e.UserID, service, e.Text)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			return nil
		}
		return err
	}
	if created {
		ticketEvents.WithLabelValues("created").Inc()
	}

	d.notifyOperators(ctx, lang, t, created, strings.TrimSpace(e.Text))

	if ackClient {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "request_sent", "ticket", t.ID)})
	}
	return nil
}

// notifyOperators fans the client message out to the operator side: the
// assigned operator's private chat (tuning them in on delivery) and the
// shared dispatch group with the ticket action buttons. Delivery failures
// are logged; the transcript row is already durable at this point.
func (d *Dispatcher) notifyOperators(ctx context.Context, lang string, t *domain.Ticket, isNew bool, text string) {
	var name, surname, phone string
	if c, err := d.Reg.Client(ctx, t.UserID); err == nil {
		name, surname, phone = c.Name, c.Surname, c.Phone
	}

	key := "ticket_text_msg"
	if isNew {
		key = "ticket_text_new"
	}
	body := content.T(lang, key,
		"ticket", t.ID, "name", name, "surname", surname,
		"phone", phone, "service", t.Service, "msg", text)

	if !isNew && t.AssignedOperatorID != nil {
		op := *t.AssignedOperatorID
		if err := d.Transport.SendMessage(ctx, op, Message{Text: body}); err != nil {
			d.Log.Warn().Err(err).Str("ticket", t.ID).Int64("operator", op).
				Msg("direct operator notification failed")
		} else {
			// Auto tune-in: the operator can reply without pressing ✉️ again.
			d.Sessions.BindTicket(op, t.ID)
		}
	}

	if d.OperatorsGroupID == 0 {
		d.Log.Warn().Str("ticket", t.ID).Msg("operators group not configured, dispatch notification skipped")
		return
	}
	if err := d.Transport.SendMessage(ctx, d.OperatorsGroupID, Message{
		Text:    body,
		Buttons: kbTicketActions(lang, t.ID),
	}); err != nil {
		d.Log.Error().Err(err).Str("ticket", t.ID).Msg("group notification failed")
		relayedMessages.WithLabelValues("client_to_operator", "error").Inc()
		return
	}
	relayedMessages.WithLabelValues("client_to_operator", "ok").Inc()
}

func (d *Dispatcher) operatorText(ctx context.Context, e TextEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)

	if d.Sessions.TakeSearch(e.UserID) {
		return d.adminSearchResult(ctx, e, lang)
	}

	ticketID, ok := d.Sessions.ActiveTicket(e.UserID)
	if !ok {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "hint_admin")})
	}

	t, err := d.Tickets.AppendFromOperator(ctx, ticketID, e.Text)
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		d.Sessions.Unbind(e.UserID)
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "ticket_not_found")})
	case errors.Is(err, services.ErrTicketClosed):
		d.Sessions.Unbind(e.UserID)
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "ticket_closed_conflict")})
	case errors.Is(err, services.ErrEmptyMessage):
		return nil
	case err != nil:
		return err
	}

	clientLang := d.lang(ctx, t.UserID, "")
	reply := Message{Text: content.T(clientLang, "operator_reply", "msg", strings.TrimSpace(e.Text))}
	if err := d.Transport.SendMessage(ctx, t.UserID, reply); err != nil {
		relayedMessages.WithLabelValues("operator_to_client", "error").Inc()
		d.Log.Error().Err(err).Str("ticket", t.ID).Int64("client", t.UserID).
			Msg("reply delivery to client failed")
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "send_failed")})
	}
	relayedMessages.WithLabelValues("operator_to_client", "ok").Inc()
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "sent_ok")})
}

func (d *Dispatcher) adminSearchResult(ctx context.Context, e TextEvent, lang string) error {
	id := strings.TrimSpace(e.Text)
	if !domain.ValidTicketID(id) {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "ticket_not_found")})
	}
	t, err := d.Tickets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "ticket_not_found")})
		}
		return err
	}
	assigned := "—"
	if t.AssignedOperatorID != nil {
		assigned = strconv.FormatInt(*t.AssignedOperatorID, 10)
	}
	return d.send(ctx, e.ChatID, Message{
		Text: content.T(lang, "ticket_found",
			"id", t.ID, "service", t.Service, "status", string(t.Status), "assigned", assigned),
		Buttons: kbTicketActions(lang, t.ID),
	})
}

// ----- service menus -----

func (d *Dispatcher) handleBackToMenu(ctx context.Context, e BackToMenuEvent) error {
	d.answer(ctx, e.Meta, "", false)
	lang := d.lang(ctx, e.UserID, e.LangHint)
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "select_service"), Buttons: kbMainMenu(lang)})
}

func (d *Dispatcher) handleSelectService(ctx context.Context, e SelectServiceEvent) error {
	d.answer(ctx, e.Meta, "", false)
	if !content.KnownService(e.Service) {
		droppedEvents.Inc()
		return nil
	}
	lang := d.lang(ctx, e.UserID, e.LangHint)
	return d.send(ctx, e.ChatID, Message{
		Text:    content.T(lang, "service_title", "service", e.Service),
		Buttons: kbService(lang, e.Service),
	})
}

func (d *Dispatcher) handleShowInfo(ctx context.Context, m Meta, service, titleKey string, lookup func(lang, key string) string) error {
	d.answer(ctx, m, "", false)
	lang := d.lang(ctx, m.UserID, m.LangHint)
	txt := lookup(lang, service)
	if txt == "" {
		txt = "—"
	}
	return d.send(ctx, m.ChatID, Message{
		Text: content.T(lang, titleKey, "service", service, "txt", txt),
	})
}

func (d *Dispatcher) handleChooseChannel(ctx context.Context, e ChooseChannelEvent) error {
	d.answer(ctx, e.Meta, "", false)
	lang := d.lang(ctx, e.UserID, e.LangHint)
	return d.send(ctx, e.ChatID, Message{
		Text:    content.T(lang, "choose_operator_where"),
		Buttons: kbOperatorChoice(lang),
	})
}

func (d *Dispatcher) handleWhatsApp(ctx context.Context, e WhatsAppEvent) error {
	d.answer(ctx, e.Meta, "", false)
	lang := d.lang(ctx, e.UserID, e.LangHint)

	var name, surname, phone string
	if c, err := d.Reg.Client(ctx, e.UserID); err == nil {
		name, surname, phone = c.Name, c.Surname, c.Phone
	}
	link := d.WhatsApp.Link(e.UserID, content.IntroText(name, surname, phone, e.Service))

	if e.Service != "" {
		return d.send(ctx, e.ChatID, Message{
			Text: content.T(lang, "open_whatsapp_service", "service", e.Service, "link", link),
		})
	}
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "open_whatsapp", "link", link)})
}

func (d *Dispatcher) handleOperatorChat(ctx context.Context, e OperatorChatEvent) error {
	d.answer(ctx, e.Meta, "", false)
	lang := d.lang(ctx, e.UserID, e.LangHint)
	d.Sessions.BeginCompose(e.UserID, e.Service)
	if e.Service != "" {
		return d.send(ctx, e.ChatID, Message{
			Text: content.T(lang, "write_to_operator_for", "service", e.Service),
		})
	}
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "write_to_operator")})
}

// ----- operator ticket actions -----

func (d *Dispatcher) handleClaim(ctx context.Context, e ClaimEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.answer(ctx, e.Meta, content.T(lang, "only_operators"), true)
	}

	_, err := d.Tickets.Claim(ctx, e.TicketID, e.UserID)
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_not_found"), true)
	case errors.Is(err, services.ErrTicketClosed):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_closed_conflict"), true)
	case errors.Is(err, services.ErrTicketAssigned):
		return d.answer(ctx, e.Meta, content.T(lang, "already_taken"), true)
	case err != nil:
		d.answer(ctx, e.Meta, "", false)
		return err
	}
	ticketEvents.WithLabelValues("claimed").Inc()
	return d.answer(ctx, e.Meta, content.T(lang, "taken_ok"), false)
}

func (d *Dispatcher) handleReply(ctx context.Context, e ReplyEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.answer(ctx, e.Meta, content.T(lang, "only_operators"), true)
	}

	// Opening active chat claims the ticket on the way in; replying to your
	// own ticket is a no-op claim.
	t, err := d.Tickets.Claim(ctx, e.TicketID, e.UserID)
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_not_found"), true)
	case errors.Is(err, services.ErrTicketClosed):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_closed_conflict"), true)
	case errors.Is(err, services.ErrTicketAssigned):
		return d.answer(ctx, e.Meta, content.T(lang, "assigned_other"), true)
	case err != nil:
		d.answer(ctx, e.Meta, "", false)
		return err
	}

	d.Sessions.BindTicket(e.UserID, t.ID)
	d.answer(ctx, e.Meta, "OK", false)
	return d.send(ctx, e.UserID, Message{Text: content.T(lang, "active_chat_on", "ticket", t.ID)})
}

func (d *Dispatcher) handleClose(ctx context.Context, e CloseEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.answer(ctx, e.Meta, content.T(lang, "only_operators"), true)
	}

	t, err := d.Tickets.Close(ctx, e.TicketID, e.UserID)
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_not_found"), true)
	case errors.Is(err, services.ErrTicketClosed):
		return d.answer(ctx, e.Meta, content.T(lang, "ticket_closed_conflict"), true)
	case errors.Is(err, services.ErrNotPermitted):
		return d.answer(ctx, e.Meta, content.T(lang, "assigned_other"), true)
	case err != nil:
		d.answer(ctx, e.Meta, "", false)
		return err
	}
	ticketEvents.WithLabelValues("closed").Inc()
	d.answer(ctx, e.Meta, "OK", false)

	// Release every operator tuned in to this ticket so their next message
	// cannot land in a closed conversation.
	d.Sessions.UnbindTicket(t.ID)

	clientLang := d.lang(ctx, t.UserID, "")
	if err := d.Transport.SendMessage(ctx, t.UserID, Message{
		Text: content.T(clientLang, "ticket_closed"),
	}); err != nil {
		d.Log.Warn().Err(err).Str("ticket", t.ID).Int64("client", t.UserID).
			Msg("close notice to client failed")
	}

	if d.OperatorsGroupID != 0 {
		return d.send(ctx, d.OperatorsGroupID, Message{
			Text: content.T(lang, "ticket_closed_group", "ticket", t.ID),
		})
	}
	return nil
}

func (d *Dispatcher) handleStop(ctx context.Context, e StopEvent) error {
	if !d.isOperator(e.UserID) {
		return nil
	}
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if id, ok := d.Sessions.Unbind(e.UserID); ok {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "active_chat_off", "ticket", id)})
	}
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "no_active_chat")})
}

// ----- admin panel -----

func (d *Dispatcher) handleAdminMenu(ctx context.Context, e AdminMenuEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "admin_denied")})
	}
	return d.send(ctx, e.ChatID, Message{
		Text:    content.T(lang, "admin_title"),
		Buttons: kbAdminMenu(lang),
	})
}

func (d *Dispatcher) handleAdminList(ctx context.Context, e AdminListEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.answer(ctx, e.Meta, content.T(lang, "admin_denied"), true)
	}
	d.answer(ctx, e.Meta, "", false)

	items, _, err := d.Tickets.ListPage(ctx, e.Status, 1, 15)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "tickets_none")})
	}

	lines := make([]string, 0, len(items))
	for _, t := range items {
		lines = append(lines, fmt.Sprintf("• <b>%s</b> — %s — <i>%s</i>", t.ID, t.Service, t.Status))
	}
	return d.send(ctx, e.ChatID, Message{
		Text: content.T(lang, "tickets_list", "lines", strings.Join(lines, "\n")),
	})
}

func (d *Dispatcher) handleAdminSearch(ctx context.Context, e AdminSearchEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	if !d.isOperator(e.UserID) {
		return d.answer(ctx, e.Meta, content.T(lang, "admin_denied"), true)
	}
	d.answer(ctx, e.Meta, "", false)
	d.Sessions.BeginSearch(e.UserID)
	return d.send(ctx, e.ChatID, Message{Text: content.T(lang, "admin_search_ask")})
}

func (d *Dispatcher) handleWhoAmI(ctx context.Context, e WhoAmIEvent) error {
	lang := d.lang(ctx, e.UserID, e.LangHint)
	return d.send(ctx, e.ChatID, Message{
		Text: fmt.Sprintf("ID: %d\nADMIN: %t\nLANG: %s", e.UserID, d.isOperator(e.UserID), lang),
	})
}
