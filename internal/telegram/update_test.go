package telegram

import (
	"encoding/json"
	"testing"

	"github.com/doloni/support-bot/internal/bot"
)

func privateMsg(text string) Update {
	return Update{
		UpdateID: 1,
		Message: &IncomingMsg{
			From: &User{ID: 7, LanguageCode: "it"},
			Chat: &Chat{ID: 7, Type: "private"},
			Text: text,
		},
	}
}

func TestDecodeUpdate_Commands(t *testing.T) {
	cases := map[string]bot.Event{
		"/start":        bot.StartEvent{Meta: bot.Meta{UserID: 7, ChatID: 7, LangHint: "it"}},
		"/start@doloni": bot.StartEvent{Meta: bot.Meta{UserID: 7, ChatID: 7, LangHint: "it"}},
		"/stop":         bot.StopEvent{Meta: bot.Meta{UserID: 7, ChatID: 7, LangHint: "it"}},
		"/admin":        bot.AdminMenuEvent{Meta: bot.Meta{UserID: 7, ChatID: 7, LangHint: "it"}},
		"/whoami":       bot.WhoAmIEvent{Meta: bot.Meta{UserID: 7, ChatID: 7, LangHint: "it"}},
	}
	for text, want := range cases {
		got, ok := DecodeUpdate(privateMsg(text))
		if !ok || got != want {
			t.Errorf("DecodeUpdate(%q) = %#v, %v", text, got, ok)
		}
	}

	if _, ok := DecodeUpdate(privateMsg("/unknown")); ok {
		t.Error("unknown command should be dropped")
	}
}

func TestDecodeUpdate_TextAndContact(t *testing.T) {
	got, ok := DecodeUpdate(privateMsg("ciao"))
	if !ok {
		t.Fatal("text update not decoded")
	}
	te, ok := got.(bot.TextEvent)
	if !ok || te.Text != "ciao" {
		t.Fatalf("got %#v", got)
	}

	u := privateMsg("")
	u.Message.Contact = &Contact{PhoneNumber: "+393331234567", UserID: 7}
	got, ok = DecodeUpdate(u)
	if !ok {
		t.Fatal("contact update not decoded")
	}
	ce, ok := got.(bot.ContactEvent)
	if !ok || ce.Phone != "+393331234567" {
		t.Fatalf("got %#v", got)
	}
}

func TestDecodeUpdate_Ignores(t *testing.T) {
	group := privateMsg("hello")
	group.Message.Chat.Type = "supergroup"
	if _, ok := DecodeUpdate(group); ok {
		t.Error("group messages should be ignored")
	}

	fromBot := privateMsg("beep")
	fromBot.Message.From.IsBot = true
	if _, ok := DecodeUpdate(fromBot); ok {
		t.Error("bot senders should be ignored")
	}

	if _, ok := DecodeUpdate(privateMsg("   ")); ok {
		t.Error("blank text should be ignored")
	}

	if _, ok := DecodeUpdate(Update{UpdateID: 3}); ok {
		t.Error("empty updates should be ignored")
	}
}

func TestDecodeUpdate_Callback(t *testing.T) {
	u := Update{
		UpdateID: 2,
		CallbackQuery: &CallbackQuery{
			ID:   "cb42",
			From: &User{ID: 100, LanguageCode: "uk"},
			Message: &IncomingMsg{
				Chat: &Chat{ID: -500, Type: "supergroup"},
			},
			Data: "t:claim:DD-2026-000001",
		},
	}
	got, ok := DecodeUpdate(u)
	if !ok {
		t.Fatal("callback not decoded")
	}
	ce, ok := got.(bot.ClaimEvent)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	if ce.UserID != 100 || ce.ChatID != -500 || ce.CallbackID != "cb42" || ce.TicketID != "DD-2026-000001" {
		t.Errorf("meta wrong: %#v", ce)
	}

	u.CallbackQuery.Data = "bogus"
	if _, ok := DecodeUpdate(u); ok {
		t.Error("unknown callback data should be dropped")
	}
}

func TestDecodeUpdate_FromRawJSON(t *testing.T) {
	raw := `{
		"update_id": 9000,
		"message": {
			"message_id": 12,
			"from": {"id": 7, "is_bot": false, "first_name": "Mario", "language_code": "uk"},
			"chat": {"id": 7, "type": "private"},
			"text": "/start"
		}
	}`
	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.UpdateID != 9000 {
		t.Errorf("update_id = %d", u.UpdateID)
	}
	ev, ok := DecodeUpdate(u)
	if !ok {
		t.Fatal("not decoded")
	}
	if _, isStart := ev.(bot.StartEvent); !isStart {
		t.Errorf("got %#v", ev)
	}
}
