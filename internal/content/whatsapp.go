package content

import (
	"fmt"
	"net/url"
)

// WhatsAppEndpoints are the two alternate handoff numbers (digits only, no
// plus sign). A recipient is pinned to one of them deterministically so
// repeat contacts land with the same operator phone.
type WhatsAppEndpoints struct {
	Primary   string
	Secondary string
}

// Pick selects the endpoint for a recipient: even IDs go to Primary, odd
// to Secondary.
func (w WhatsAppEndpoints) Pick(recipientID int64) string {
	if recipientID%2 == 0 {
		return w.Primary
	}
	return w.Secondary
}

// Link builds a wa.me deep link for the recipient with a prefilled text.
func (w WhatsAppEndpoints) Link(recipientID int64, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", w.Pick(recipientID), url.QueryEscape(text))
}

// IntroText is the prefilled WhatsApp message introducing the client.
// service may be empty for a generic request.
func IntroText(name, surname, phone, service string) string {
	if service != "" {
		return fmt.Sprintf("Ciao! Sono %s %s. Telefono: +%s. Servizio: %s. Vorrei assistenza.", name, surname, phone, service)
	}
	return fmt.Sprintf("Ciao! Sono %s %s. Telefono: +%s. Vorrei assistenza da Doloni Documenti.", name, surname, phone)
}
