// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Ticket
// model, including the conditional claim used by the assignment
// coordinator.
//
// Concurrency note: every invariant-bearing mutation here (creation dedup,
// claim, status transition) is a single conditional statement against the
// store. Handlers run one goroutine per inbound event, so read-then-write
// sequences from application memory would race.
//
// Functions:
//
//   - CreateTicket(ctx, db, userID, service) -> *domain.Ticket, error
//     Inserts a ticket with a fresh DD-<year>-<6 digits> ID, retrying
//     generation a bounded number of times on ID collision.
//
//   - GetTicket(ctx, db, id) -> *domain.Ticket, error
//     Fetches a ticket or returns ErrNotFound.
//
//   - OpenTicketForUser(ctx, db, userID) -> *domain.Ticket, error
//     Most-recently-updated ticket in {new, in_progress} for the user,
//     or ErrNotFound when the user has no open ticket.
//
//   - ClaimTicket(ctx, db, id, operatorID) -> *domain.Ticket, error
//     Atomic check-and-set assignment; first writer wins, self-claim is
//     idempotent. Losers get ErrTicketTaken with the winner readable via
//     GetTicket; claims on closed tickets get ErrTicketClosed.
//
//   - CloseTicket(ctx, db, id) -> error
//     Transitions to closed unless already closed (closed is terminal).
//
//   - CountTicketsByStatus / ListTicketsByStatusPage
//     Pagination pair for the operator admin lists.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
)

// Ticket-claim error values. The service layer maps these onto the
// operator-facing conflict messages.
var (
	// ErrTicketTaken indicates the conditional claim lost the race: the
	// ticket is already assigned to a different operator.
	ErrTicketTaken = errors.New("ticket already assigned")

	// ErrTicketClosed indicates an attempted transition out of the
	// terminal closed state.
	ErrTicketClosed = errors.New("ticket is closed")
)

// createIDAttempts bounds ID-collision retries. Collisions are ~1e-6 per
// attempt within a year, but the PK conflict must be handled, not ignored.
const createIDAttempts = 5

// CreateTicket inserts a new unassigned ticket for userID with the given
// service tag. The ticket ID is generated fresh per attempt; a primary-key
// collision triggers regeneration instead of overwriting the existing row.
func CreateTicket(ctx context.Context, db *gorm.DB, userID int64, service string) (*domain.Ticket, error) {
	if service == "" {
		service = "General"
	}
	var lastErr error
	for i := 0; i < createIDAttempts; i++ {
		now := time.Now().UTC()
		t := &domain.Ticket{
			ID:        domain.NewTicketID(now),
			UserID:    userID,
			Service:   service,
			Status:    domain.StatusNew,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := db.WithContext(ctx).Create(t).Error
		if err == nil {
			return t, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetTicket fetches a single ticket by ID, or ErrNotFound if missing.
func GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OpenTicketForUser returns the most-recently-updated open ticket owned by
// userID. ErrNotFound means the user currently has no open conversation;
// callers in the user flow treat that as "show the menu".
func OpenTicketForUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []domain.TicketStatus{domain.StatusNew, domain.StatusInProgress}).
		Order("updated_at desc").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ClaimTicket assigns the ticket to operatorID if and only if it is
// unassigned or already assigned to the same operator. The update is a
// single conditional statement so two racing operators cannot both observe
// "unassigned" and both win; exactly one commit lands, the other sees zero
// rows affected.
//
// On success the refreshed ticket is returned (status in_progress,
// assignee set). Failure modes:
//   - ErrNotFound: no such ticket.
//   - ErrTicketClosed: the ticket is closed; closed is terminal.
//   - ErrTicketTaken: assigned to a different operator.
func ClaimTicket(ctx context.Context, db *gorm.DB, id string, operatorID int64) (*domain.Ticket, error) {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ? AND status <> ? AND (assigned_operator_id IS NULL OR assigned_operator_id = ?)",
			id, domain.StatusClosed, operatorID).
		Updates(map[string]any{
			"assigned_operator_id": operatorID,
			"status":               domain.StatusInProgress,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return GetTicket(ctx, db, id)
	}

	// Zero rows: distinguish missing / closed / taken from a fresh read.
	t, err := GetTicket(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusClosed {
		return t, ErrTicketClosed
	}
	return t, ErrTicketTaken
}

// CloseTicket transitions the ticket to closed and touches updated_at.
// Closing is guarded so that nothing ever leaves the closed state; closing
// an already-closed ticket reports ErrTicketClosed, a missing ticket
// reports ErrNotFound.
func CloseTicket(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ? AND status <> ?", id, domain.StatusClosed).
		Updates(map[string]any{
			"status":     domain.StatusClosed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := GetTicket(ctx, db, id); err != nil {
			return err
		}
		return ErrTicketClosed
	}
	return nil
}

// TouchTicket bumps updated_at so the open-ticket lookup keeps returning
// the conversation the user last wrote to.
func TouchTicket(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTicketsByStatus returns the total number of tickets in the given
// state. On DB error, it returns the error.
func CountTicketsByStatus(ctx context.Context, db *gorm.DB, status domain.TicketStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

// ListTicketsByStatusPage returns a page of tickets in the given state,
// most recently updated first. Use CountTicketsByStatus for pagination
// metadata. The caller computes offset and limit.
func ListTicketsByStatusPage(ctx context.Context, db *gorm.DB, status domain.TicketStatus, offset, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// isUniqueViolation reports whether err is a primary-key/unique-index
// conflict. glebarez/sqlite often returns plain-text errors for UNIQUE
// violations, so the message is sniffed as a fallback.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
