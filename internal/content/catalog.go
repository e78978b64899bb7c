// Package content is the static content provider: the service catalog, the
// per-service document and price tables, the localized string tables, and
// the WhatsApp handoff links. The rest of the system treats a service as
// an opaque identifier; only this package knows what the identifiers mean.
package content

import (
	"golang.org/x/text/language"
)

// Service is one row of the service catalog: a stable key the ticket
// ledger stores, plus the label shown on menu buttons.
type Service struct {
	Key   string
	Label string
}

// Services is the ordered main-menu catalog. Keys are stable; labels are
// shown bilingual-friendly as-is.
var Services = []Service{
	{"ISEE", "🧾 ISEE"},
	{"730", "📑 730"},
	{"Patente", "🚗 Conversione patente"},
	{"Permesso", "📄 Permesso di soggiorno"},
	{"AssegnoUnico", "👨‍👩‍👧 Assegno Unico"},
	{"ADI", "🤝 Assegno di Inclusione (ADI)"},
}

// KnownService reports whether key is in the catalog.
func KnownService(key string) bool {
	for _, s := range Services {
		if s.Key == key {
			return true
		}
	}
	return false
}

// Supported languages, Italian first (the fallback).
var (
	langIT = language.Italian
	langUK = language.Ukrainian

	matcher = language.NewMatcher([]language.Tag{langIT, langUK})
)

// NormalizeLang maps an arbitrary language tag (a stored value or a
// Telegram language_code like "it-IT" or "uk") onto one of the supported
// table keys, falling back to Italian.
func NormalizeLang(tag string) string {
	if tag == "" {
		return "it"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "it"
	}
	_, idx, _ := matcher.Match(t)
	if idx == 1 {
		return "uk"
	}
	return "it"
}

// Docs returns the localized required-documents text for a service, or ""
// when the service has no docs entry.
func Docs(lang, serviceKey string) string {
	return docs[NormalizeLang(lang)][serviceKey]
}

// Price returns the localized indicative-price text for a service, or ""
// when the service has no price entry.
func Price(lang, serviceKey string) string {
	return prices[NormalizeLang(lang)][serviceKey]
}

var docs = map[string]map[string]string{
	"it": {
		"ISEE":         "- Documento d’identità\n- Codice fiscale\n- Contratto di affitto (se presente)\n- Saldo e giacenza media conti\n- CU / redditi (se presenti)\n- Stato di famiglia",
		"730":          "- Documento e codice fiscale\n- CU\n- Spese mediche\n- Spese affitto / mutuo\n- Altre detrazioni",
		"Patente":      "- Patente estera\n- Traduzione della patente estera\n- Carta d’identità\n- Codice fiscale\n- Certificato anamnestico\n- Visita oculistica\n- Residenza in Italia",
		"Permesso":     "- Passaporto\n- Permesso di soggiorno (se rinnovo)\n- Contratto di lavoro / reddito\n- Residenza o ospitalità",
		"AssegnoUnico": "- Documento e codice fiscale genitori\n- Codici fiscali figli\n- ISEE valido\n- IBAN",
		"ADI":          "- Documento e codice fiscale\n- ISEE valido\n- Stato di famiglia\n- IBAN\n- Altri requisiti INPS",
	},
	"uk": {
		"ISEE":         "- Carta d’identità або закордонний паспорт\n- Codice fiscale усіх членів сім’ї\n- Договір оренди (за наявності) та його реєстрація\n- Saldo e giacenza media станом на 31.12 усіх членів сім’ї\n- Номерні знаки автомобіля або мотоцикла\n- CU / доходи (за наявності)\n- Stato di famiglia",
		"730":          "- Carta d’identità або закордонний паспорт\n- CU\n- Медичні витрати (чеки)\n- Контракт оренди житла\n- Інші витрати для знижок\n- Codice fiscale дітей, якщо на вашому забезпеченні",
		"Patente":      "- Водійські права\n- Переклад водійських прав\n- Carta d’identità\n- Codice fiscale\n- Медична довідка\n- Довідка про візит окуліста\n- Residenza в Італії",
		"Permesso":     "- Закордонний паспорт\n- Permesso (якщо продовження)\n- Трудовий контракт\n- Residenza або ospitalità\n- Останні три busta paga\n- 730 або CU за минулий рік",
		"AssegnoUnico": "- Carta d’identità або закордонний паспорт батьків\n- Codice fiscale дітей\n- Дійсний ISEE\n- IBAN",
		"ADI":          "- Carta d’identità або закордонний паспорт\n- Дійсний ISEE\n- Stato di famiglia\n- IBAN\n- Інші вимоги INPS",
	},
}

var prices = map[string]map[string]string{
	"it": {
		"ISEE":         "A partire da €, in base alla situazione familiare.",
		"730":          "A partire da €60.",
		"Patente":      "Il costo varia in base al caso. Ti daremo un preventivo preciso su WhatsApp.",
		"Permesso":     "Il costo dipende dal tipo di permesso. Valutazione gratuita iniziale.",
		"AssegnoUnico": "A partire da €40.",
		"ADI":          "Preventivo personalizzato in base al caso.",
	},
	"uk": {
		"ISEE":         "Безкоштовно, але потребує запису до бази наших постійних клієнтів.",
		"730":          "Від €45.",
		"Patente":      "Вартість конвертації — €500.",
		"Permesso":     "Від €45, але потребує точного перегляду ситуації та документів.",
		"AssegnoUnico": "Вартість послуги €30.",
		"ADI":          "Вартість послуги €30.",
	},
}
