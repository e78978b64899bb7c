package content

import (
	"fmt"
	"strings"
)

// T translates key into lang, formatting any {placeholder} arguments.
// Unknown languages fall back to Italian; unknown keys return the key
// itself so a missing string is visible instead of silent.
func T(lang, key string, args ...any) string {
	table, ok := strings2[NormalizeLang(lang)]
	if !ok {
		table = strings2["it"]
	}
	s, ok := table[key]
	if !ok {
		return key
	}
	return formatNamed(s, args...)
}

// formatNamed substitutes {name} placeholders from alternating key/value
// arguments: formatNamed("hi {name}", "name", "Mario").
func formatNamed(s string, args ...any) string {
	for i := 0; i+1 < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			continue
		}
		s = strings.ReplaceAll(s, "{"+name+"}", fmt.Sprint(args[i+1]))
	}
	return s
}

var strings2 = map[string]map[string]string{
	"it": {
		"choose_lang":            "🌐 Scegli la lingua:",
		"welcome_registered":     "👋 Benvenuto/a in <b>Doloni Documenti</b>.\nSeleziona un servizio ⬇️",
		"welcome_need_phone":     "👋 Benvenuto/a in <b>Doloni Documenti</b>\nPer iniziare, condividi il tuo numero di telefono.",
		"btn_share_phone":        "📱 Condividi numero",
		"use_share_phone":        "Per favore usa il pulsante <b>Condividi numero</b>.",
		"enter_surname":          "Grazie! Inserisci il tuo <b>Cognome</b>.",
		"enter_name":             "Ora inserisci il tuo <b>Nome</b>.",
		"done":                   "✅ Perfetto, <b>{name}</b>!\nSeleziona il servizio di tuo interesse ⬇️",
		"menu":                   "Menu:",
		"select_service":         "Seleziona un servizio ⬇️",
		"service_title":          "<b>{service}</b>\nSeleziona cosa vuoi fare:",
		"docs_btn":               "📄 Documenti necessari",
		"price_btn":              "💶 Prezzo indicativo",
		"wa_btn":                 "💬 Continua su WhatsApp",
		"tg_btn":                 "💬 Operatore su Telegram",
		"back_btn":               "⬅️ Torna ai servizi",
		"choose_operator_where":  "Vuoi continuare su WhatsApp oppure parlare qui su Telegram?",
		"wa_recommended":         "📲 WhatsApp (consigliato)",
		"tg_here":                "💬 Telegram (qui)",
		"back":                   "⬅️ Indietro",
		"write_to_operator":      "💬 Scrivi qui il tuo messaggio per l’operatore.\nTi risponderemo qui su Telegram.",
		"write_to_operator_for":  "💬 Scrivi il tuo messaggio per <b>{service}</b>.\nTi risponderemo qui su Telegram.",
		"request_sent":           "✅ Richiesta inviata a <b>Doloni Documenti</b>.\n<b>ID:</b> {ticket}\nTi risponderemo qui.",
		"ticket_closed":          "✅ La conversazione è stata chiusa.\nSe hai bisogno, scrivi di nuovo qui.",
		"open_whatsapp":          "📲 Apri WhatsApp: {link}",
		"open_whatsapp_service":  "📲 WhatsApp ({service}): {link}",
		"admin_denied":           "Accesso negato.",
		"admin_title":            "🛠️ <b>Doloni Admin</b>",
		"admin_new":              "📥 Nuovi",
		"admin_progress":         "⏳ In lavorazione",
		"admin_closed":           "✅ Chiusi",
		"admin_search":           "🔎 Cerca (scrivi ID)",
		"admin_search_ask":       "Scrivi l’ID del ticket (es: DD-2026-123456).",
		"ticket_not_found":       "Ticket non trovato.",
		"tickets_none":           "Nessun ticket in questa lista.",
		"tickets_list":           "📋 Tickets:\n{lines}",
		"ticket_found":           "✅ Trovato: <b>{id}</b>\nServizio: {service}\nStatus: {status}\nAssegnato: {assigned}",
		"only_operators":         "Solo operatori.",
		"already_taken":          "Già preso da un altro operatore.",
		"taken_ok":               "Preso in carico ✅",
		"assigned_other":         "Ticket assegnato a un altro operatore.",
		"ticket_closed_conflict": "Il ticket è già chiuso.",
		"active_chat_on":         "✅ Chat attiva: <b>{ticket}</b>\nOra puoi scrivere qui in privato: ogni messaggio verrà inviato al cliente.\nPer uscire: /stop",
		"active_chat_off":        "⛔️ Chat disattivata (era: <b>{ticket}</b>).",
		"no_active_chat":         "Non hai una chat attiva.",
		"sent_ok":                "✅ Inviato.",
		"send_failed":            "❌ Non è stato possibile consegnare il messaggio al cliente.",
		"hint_admin":             "🛠️ Sei in modalità amministratore.\nApri una chat: vai nella chat operatori e premi ✉️ Rispondi su un ticket.\nPoi scrivi qui in privato.\nMenu: /admin\nUscire: /stop",
		"talk_to_operator":       "💬 Parlare con un operatore",
		"ticket_text_new":        "🆕 <b>Ticket {ticket}</b>\nCliente: {name} {surname}\nTel: +{phone}\nServizio: {service}\nMessaggio: “{msg}”",
		"ticket_text_msg":        "📩 <b>Ticket {ticket}</b> (messaggio cliente)\n{name} {surname} | +{phone}\n“{msg}”",
		"claim_btn":              "✅ Prendi in carico",
		"reply_btn":              "✉️ Rispondi",
		"close_btn":              "🔒 Chiudi",
		"docs_title":             "<b>{service}</b> — Documenti necessari:\n{txt}",
		"price_title":            "<b>{service}</b> — Prezzo indicativo:\n{txt}",
		"operator_reply":         "<b>Doloni Documenti:</b>\n{msg}",
		"ticket_closed_group":    "🔒 <b>{ticket}</b> closed.",
	},
	"uk": {
		"choose_lang":            "🌐 Оберіть мову:",
		"welcome_registered":     "👋 Вітаємо у <b>Doloni Documenti</b>.\nОберіть послугу ⬇️",
		"welcome_need_phone":     "👋 Вітаємо у <b>Doloni Documenti</b>\nЩоб почати, поділіться номером телефону.",
		"btn_share_phone":        "📱 Поділитися номером",
		"use_share_phone":        "Будь ласка, скористайтеся кнопкою <b>Поділитися номером</b>.",
		"enter_surname":          "Дякуємо! Введіть ваше <b>Прізвище</b>.",
		"enter_name":             "Тепер введіть ваше <b>Ім’я</b>.",
		"done":                   "✅ Чудово, <b>{name}</b>!\nОберіть послугу ⬇️",
		"menu":                   "Меню:",
		"select_service":         "Оберіть послугу ⬇️",
		"service_title":          "<b>{service}</b>\nОберіть дію:",
		"docs_btn":               "📄 Потрібні документи",
		"price_btn":              "💶 Орієнтовна вартість",
		"wa_btn":                 "💬 Продовжити у WhatsApp",
		"tg_btn":                 "💬 Оператор у Telegram",
		"back_btn":               "⬅️ Назад до послуг",
		"choose_operator_where":  "Бажаєте продовжити у WhatsApp чи поспілкуватися тут у Telegram?",
		"wa_recommended":         "📲 WhatsApp (рекомендовано)",
		"tg_here":                "💬 Telegram (тут)",
		"back":                   "⬅️ Назад",
		"write_to_operator":      "💬 Напишіть тут повідомлення для оператора.\nМи відповімо вам тут у Telegram.",
		"write_to_operator_for":  "💬 Напишіть повідомлення щодо <b>{service}</b>.\nМи відповімо вам тут у Telegram.",
		"request_sent":           "✅ Запит надіслано до <b>Doloni Documenti</b>.\n<b>ID:</b> {ticket}\nМи відповімо вам тут.",
		"ticket_closed":          "✅ Діалог закрито.\nЯкщо буде потрібно — напишіть нам тут знову.",
		"open_whatsapp":          "📲 Відкрити WhatsApp: {link}",
		"open_whatsapp_service":  "📲 WhatsApp ({service}): {link}",
		"admin_denied":           "Доступ заборонено.",
		"admin_title":            "🛠️ <b>Doloni Admin</b>",
		"admin_new":              "📥 Нові",
		"admin_progress":         "⏳ В роботі",
		"admin_closed":           "✅ Закриті",
		"admin_search":           "🔎 Пошук (введіть ID)",
		"admin_search_ask":       "Введіть ID тікету (наприклад: DD-2026-123456).",
		"ticket_not_found":       "Тікет не знайдено.",
		"tickets_none":           "У цьому списку немає тікетів.",
		"tickets_list":           "📋 Тікети:\n{lines}",
		"ticket_found":           "✅ Знайдено: <b>{id}</b>\nПослуга: {service}\nСтатус: {status}\nПризначено: {assigned}",
		"only_operators":         "Тільки для операторів.",
		"already_taken":          "Вже взято іншим оператором.",
		"taken_ok":               "Взято в роботу ✅",
		"assigned_other":         "Тікет призначено іншому оператору.",
		"ticket_closed_conflict": "Тікет уже закрито.",
		"active_chat_on":         "✅ Активний чат: <b>{ticket}</b>\nТепер пишіть тут у приват — кожне повідомлення піде клієнту.\nВийти: /stop",
		"active_chat_off":        "⛔️ Чат вимкнено (був: <b>{ticket}</b>).",
		"no_active_chat":         "У вас немає активного чату.",
		"sent_ok":                "✅ Надіслано.",
		"send_failed":            "❌ Не вдалося надіслати повідомлення клієнту.",
		"hint_admin":             "🛠️ Ви в режимі адміністратора.\nВідкрийте чат: у групі операторів натисніть ✉️ Відповісти на тікеті.\nПотім пишіть тут у приват.\nМеню: /admin\nВийти: /stop",
		"talk_to_operator":       "💬 Поспілкуватися з оператором",
		"ticket_text_new":        "🆕 <b>Тікет {ticket}</b>\nКлієнт: {name} {surname}\nТел: +{phone}\nПослуга: {service}\nПовідомлення: “{msg}”",
		"ticket_text_msg":        "📩 <b>Тікет {ticket}</b> (повідомлення клієнта)\n{name} {surname} | +{phone}\n“{msg}”",
		"claim_btn":              "✅ Взяти",
		"reply_btn":              "✉️ Відповісти",
		"close_btn":              "🔒 Закрити",
		"docs_title":             "<b>{service}</b> — Потрібні документи:\n{txt}",
		"price_title":            "<b>{service}</b> — Орієнтовна вартість:\n{txt}",
		"operator_reply":         "<b>Doloni Documenti:</b>\n{msg}",
		"ticket_closed_group":    "🔒 <b>{ticket}</b> closed.",
	},
}
