// Package services – TicketService
//
// This file implements the TicketService, which coordinates ticket lifecycle
// and transcript persistence: opening or reusing a conversation when a client
// writes, appending both sides of the dialogue, the first-writer-wins claim,
// and the guarded close. The service maps repository sentinels onto the
// service-level errors the dispatcher translates into localized replies.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
	"github.com/doloni/support-bot/internal/repo"
)

// TicketRepo defines the repository contract required by TicketService.
type TicketRepo interface {
	// CreateTicket inserts a new unassigned ticket for the user.
	CreateTicket(ctx context.Context, db *gorm.DB, userID int64, service string) (*domain.Ticket, error)

	// GetTicket fetches a ticket by ID.
	GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error)

	// OpenTicketForUser returns the user's most recently updated open ticket.
	OpenTicketForUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.Ticket, error)

	// ClaimTicket conditionally assigns the ticket to the operator.
	ClaimTicket(ctx context.Context, db *gorm.DB, id string, operatorID int64) (*domain.Ticket, error)

	// CloseTicket transitions the ticket into the terminal closed state.
	CloseTicket(ctx context.Context, db *gorm.DB, id string) error

	// TouchTicket bumps the ticket's updated_at.
	TouchTicket(ctx context.Context, db *gorm.DB, id string) error

	// CountTicketsByStatus returns the total per state for pagination.
	CountTicketsByStatus(ctx context.Context, db *gorm.DB, status domain.TicketStatus) (int64, error)

	// ListTicketsByStatusPage returns a page of tickets in the given state.
	ListTicketsByStatusPage(ctx context.Context, db *gorm.DB, status domain.TicketStatus, offset, limit int) ([]domain.Ticket, error)
}

// TranscriptRepo defines the transcript persistence contract.
type TranscriptRepo interface {
	// AppendTranscript inserts one append-only transcript entry.
	AppendTranscript(ctx context.Context, db *gorm.DB, ticketID string, role domain.TranscriptRole, text string) (*domain.TranscriptEntry, error)
}

// TicketService provides ticket lifecycle operations for both sides of the
// conversation. Invariant-bearing transitions (claim, close) are delegated to
// the repository's conditional statements; the service adds input validation,
// permission checks, and error mapping.
type TicketService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tickets is the ticket repository used by this service.
	Tickets TicketRepo
	// Transcript is the transcript repository used by this service.
	Transcript TranscriptRepo

	// MaxMessageLen caps stored message text by rune length; longer input is
	// clipped, not rejected, so a verbose client still gets through.
	MaxMessageLen int
}

// NewTicketService constructs a TicketService with defaults.
func NewTicketService(db *gorm.DB, t TicketRepo, tr TranscriptRepo) *TicketService {
	return &TicketService{DB: db, Tickets: t, Transcript: tr, MaxMessageLen: 4000}
}

// Get fetches a ticket by ID, mapping a missing row to ErrTicketNotFound.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := s.Tickets.GetTicket(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// OpenForUser returns the user's current open conversation, or
// ErrTicketNotFound when every ticket of theirs is closed (or they have
// none). It never creates anything.
func (s *TicketService) OpenForUser(ctx context.Context, userID int64) (*domain.Ticket, error) {
	t, err := s.Tickets.OpenTicketForUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// AppendFromUser records a client message. It reuses the user's open ticket
// when one exists, otherwise it opens a new ticket tagged with service.
// The returned flag reports whether a new ticket was created, which decides
// the "new ticket" versus "new message" operator notification.
func (s *TicketService) AppendFromUser(ctx context.Context, userID int64, service, text string) (*domain.Ticket, bool, error) {
	text = s.clip(strings.TrimSpace(text))
	if text == "" {
		return nil, false, ErrEmptyMessage
	}

	created := false
	t, err := s.Tickets.OpenTicketForUser(ctx, s.DB, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		t, err = s.Tickets.CreateTicket(ctx, s.DB, userID, service)
		if err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	}

	if _, err := s.Transcript.AppendTranscript(ctx, s.DB, t.ID, domain.RoleClient, text); err != nil {
		return nil, created, err
	}
	if !created {
		if err := s.Tickets.TouchTicket(ctx, s.DB, t.ID); err != nil {
			return nil, created, err
		}
		t.UpdatedAt = time.Now().UTC()
	}
	return t, created, nil
}

// AppendFromOperator records an operator reply on the ticket. Replies to
// closed tickets are rejected; the transcript of a closed conversation is
// final.
func (s *TicketService) AppendFromOperator(ctx context.Context, ticketID, text string) (*domain.Ticket, error) {
	text = s.clip(strings.TrimSpace(text))
	if text == "" {
		return nil, ErrEmptyMessage
	}
	t, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusClosed {
		return t, ErrTicketClosed
	}
	if _, err := s.Transcript.AppendTranscript(ctx, s.DB, t.ID, domain.RoleOperator, text); err != nil {
		return nil, err
	}
	if err := s.Tickets.TouchTicket(ctx, s.DB, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// Claim assigns the ticket to operatorID. First writer wins; re-claiming a
// ticket the operator already holds succeeds and is a no-op. The refreshed
// ticket is returned even on ErrTicketAssigned so the caller can name the
// current holder.
func (s *TicketService) Claim(ctx context.Context, ticketID string, operatorID int64) (*domain.Ticket, error) {
	t, err := s.Tickets.ClaimTicket(ctx, s.DB, ticketID, operatorID)
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTicketNotFound
	case errors.Is(err, repo.ErrTicketClosed):
		return t, ErrTicketClosed
	case errors.Is(err, repo.ErrTicketTaken):
		return t, ErrTicketAssigned
	}
	return nil, err
}

// Close transitions the ticket into the terminal closed state. An operator
// may close a ticket they hold or an unassigned one; closing a colleague's
// ticket is refused with ErrNotPermitted.
func (s *TicketService) Close(ctx context.Context, ticketID string, operatorID int64) (*domain.Ticket, error) {
	t, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusClosed {
		return t, ErrTicketClosed
	}
	if t.AssignedOperatorID != nil && *t.AssignedOperatorID != operatorID {
		return t, ErrNotPermitted
	}
	if err := s.Tickets.CloseTicket(ctx, s.DB, ticketID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrTicketNotFound
		case errors.Is(err, repo.ErrTicketClosed):
			return t, ErrTicketClosed
		}
		return nil, err
	}
	t.Status = domain.StatusClosed
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// ListPage returns one admin page of tickets in the given state together
// with the total count for that state.
func (s *TicketService) ListPage(ctx context.Context, status domain.TicketStatus, page, perPage int) ([]domain.Ticket, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	total, err := s.Tickets.CountTicketsByStatus(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Tickets.ListTicketsByStatusPage(ctx, s.DB, status, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *TicketService) clip(text string) string {
	if s.MaxMessageLen <= 0 || utf8.RuneCountInString(text) <= s.MaxMessageLen {
		return text
	}
	r := []rune(text)
	return string(r[:s.MaxMessageLen])
}
