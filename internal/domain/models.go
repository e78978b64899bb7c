// Package domain defines the persistence models for clients, tickets, and
// transcript entries. These types are mapped with GORM and form the core
// data layer of the support bot.
package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// TicketStatus is the lifecycle state of a support ticket.
//
// Transitions:
//
//	new --[claim/reply]--> in_progress --[close]--> closed
//	new --[close]--> closed
//
// closed is terminal.
type TicketStatus string

const (
	// StatusNew marks a ticket that no operator has claimed yet.
	StatusNew TicketStatus = "new"
	// StatusInProgress marks a ticket owned by exactly one operator.
	StatusInProgress TicketStatus = "in_progress"
	// StatusClosed marks a finished conversation. Terminal.
	StatusClosed TicketStatus = "closed"
)

// Valid reports whether s is one of the known ticket states.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Open reports whether a ticket in this state still accepts messages.
func (s TicketStatus) Open() bool {
	return s == StatusNew || s == StatusInProgress
}

// TranscriptRole identifies the author side of a transcript entry.
type TranscriptRole string

const (
	// RoleClient is a message written by the end user.
	RoleClient TranscriptRole = "client"
	// RoleOperator is a message written by a support operator.
	RoleOperator TranscriptRole = "operator"
)

// Client represents an end user of the bot, keyed by their stable Telegram
// user ID. Rows are created on first contact and filled in field by field as
// registration steps complete; they are never deleted.
//
// Fields:
//   - TelegramID: Telegram user ID, primary key.
//   - Phone: digits shared via the contact button (empty until shared).
//   - Surname / Name: free-text registration answers.
//   - Lang: language tag ("it" or "uk"); empty until chosen.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Client struct {
	TelegramID int64     `json:"telegram_id" gorm:"primaryKey;autoIncrement:false"`
	Phone      string    `json:"phone"       gorm:"type:varchar(32)"`
	Surname    string    `json:"surname"     gorm:"type:varchar(128)"`
	Name       string    `json:"name"        gorm:"type:varchar(128)"`
	Lang       string    `json:"lang"        gorm:"type:varchar(8)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Client.
func (Client) TableName() string { return "clients" }

// Registered reports whether the client completed all registration steps.
// A client counts as registered iff phone, surname and name are all set.
func (c Client) Registered() bool {
	return c.Phone != "" && c.Surname != "" && c.Name != ""
}

// Ticket represents one support conversation between a client and at most
// one operator.
//
// Invariant: AssignedOperatorID is non-nil if and only if Status != new.
// The transition new → in_progress happens atomically with assignment
// (see repo.ClaimTicket).
//
// Fields:
//   - ID: ticket identifier in the form "DD-<year>-<6 digits>". Globally
//     unique; a generation collision is a creation failure, never an
//     overwrite.
//   - UserID: Telegram ID of the owning client; indexed together with
//     status for the open-ticket lookup.
//   - Service: opaque service tag (catalog key); defaults to "General".
//   - AssignedOperatorID: Telegram ID of the claiming operator, nil while new.
type Ticket struct {
	ID                 string       `json:"id"          gorm:"type:varchar(16);primaryKey"`
	UserID             int64        `json:"user_id"     gorm:"not null;index:idx_user_status,priority:1"`
	Service            string       `json:"service"     gorm:"type:varchar(64);not null;default:'General'"`
	Status             TicketStatus `json:"status"      gorm:"type:varchar(16);not null;index:idx_user_status,priority:2;check:status IN ('new','in_progress','closed')"`
	AssignedOperatorID *int64       `json:"assigned_operator_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"  gorm:"index"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tickets" }

// AssignedTo reports whether the ticket is assigned to operatorID.
func (t Ticket) AssignedTo(operatorID int64) bool {
	return t.AssignedOperatorID != nil && *t.AssignedOperatorID == operatorID
}

// TranscriptEntry is a single utterance inside a ticket. Entries are
// append-only, ordered by creation time, and never mutated or deleted.
type TranscriptEntry struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TicketID  string         `json:"ticket_id"  gorm:"type:varchar(16);not null;index:idx_ticket_entries,priority:1"`
	Role      TranscriptRole `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('client','operator')"`
	Text      string         `json:"text"       gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_ticket_entries,priority:2"`

	// Ticket is the owning conversation.
	Ticket Ticket `json:"-" gorm:"foreignKey:TicketID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TranscriptEntry.
func (TranscriptEntry) TableName() string { return "transcript" }

// ProcessedUpdate records a Telegram update_id that has already been
// handled. Telegram re-delivers webhook updates on non-2xx responses, so
// the webhook handler consults this ledger before dispatching an event.
type ProcessedUpdate struct {
	UpdateID  int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the database table name for ProcessedUpdate.
func (ProcessedUpdate) TableName() string { return "processed_updates" }

// ticketIDPrefix is the agency prefix carried by every ticket ID.
const ticketIDPrefix = "DD"

var ticketIDRE = regexp.MustCompile(`^DD-\d{4}-\d{6}$`)

// NewTicketID generates a ticket identifier of the form DD-<year>-<6 digits>.
// The suffix is random; uniqueness is enforced by the primary key, with the
// caller retrying on collision.
func NewTicketID(now time.Time) string {
	return fmt.Sprintf("%s-%d-%06d", ticketIDPrefix, now.UTC().Year(), rand.IntN(1_000_000))
}

// ValidTicketID reports whether s has the DD-<year>-<6 digits> shape.
// Used by the admin search flow before hitting the store.
func ValidTicketID(s string) bool { return ticketIDRE.MatchString(s) }
