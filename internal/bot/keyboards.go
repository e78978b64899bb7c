package bot

import (
	"github.com/doloni/support-bot/internal/content"
)

func kbLang() [][]Button {
	return [][]Button{{
		{Text: "🇺🇦 Українська", Data: callbackLang("uk")},
		{Text: "🇮🇹 Italiano", Data: callbackLang("it")},
	}}
}

func kbMainMenu(lang string) [][]Button {
	rows := make([][]Button, 0, len(content.Services)+1)
	for _, s := range content.Services {
		rows = append(rows, []Button{{Text: s.Label, Data: callbackService(s.Key)}})
	}
	rows = append(rows, []Button{{Text: content.T(lang, "talk_to_operator"), Data: callbackChooseChannel}})
	return rows
}

func kbService(lang, serviceKey string) [][]Button {
	return [][]Button{
		{{Text: content.T(lang, "docs_btn"), Data: callbackDocs(serviceKey)}},
		{{Text: content.T(lang, "price_btn"), Data: callbackPrice(serviceKey)}},
		{{Text: content.T(lang, "wa_btn"), Data: callbackWhatsApp(serviceKey)}},
		{{Text: content.T(lang, "tg_btn"), Data: callbackTelegramOp(serviceKey)}},
		{{Text: content.T(lang, "back_btn"), Data: callbackBackMenu}},
	}
}

func kbOperatorChoice(lang string) [][]Button {
	return [][]Button{
		{{Text: content.T(lang, "wa_recommended"), Data: callbackOpWhatsApp}},
		{{Text: content.T(lang, "tg_here"), Data: callbackOpTelegram}},
		{{Text: content.T(lang, "back"), Data: callbackBackMenu}},
	}
}

func kbTicketActions(lang, ticketID string) [][]Button {
	return [][]Button{
		{
			{Text: content.T(lang, "claim_btn"), Data: callbackClaim(ticketID)},
			{Text: content.T(lang, "reply_btn"), Data: callbackReply(ticketID)},
		},
		{{Text: content.T(lang, "close_btn"), Data: callbackClose(ticketID)}},
	}
}

func kbAdminMenu(lang string) [][]Button {
	return [][]Button{
		{{Text: content.T(lang, "admin_new"), Data: callbackAdminList("new")}},
		{{Text: content.T(lang, "admin_progress"), Data: callbackAdminList("in_progress")}},
		{{Text: content.T(lang, "admin_closed"), Data: callbackAdminList("closed")}},
		{{Text: content.T(lang, "admin_search"), Data: callbackAdminSearchAsk}},
	}
}
