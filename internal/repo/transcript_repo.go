// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only ticket transcript.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
)

// AppendTranscript inserts a transcript entry for the ticket. Entries are
// append-only; nothing here updates or deletes. The entry ID is a randomly
// generated UUID and CreatedAt is set to UTC.
func AppendTranscript(ctx context.Context, db *gorm.DB, ticketID string, role domain.TranscriptRole, text string) (*domain.TranscriptEntry, error) {
	e := &domain.TranscriptEntry{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListTranscript returns all entries of a ticket ordered by creation time
// ascending (conversation order). It returns an empty slice when the
// ticket has no entries.
func ListTranscript(ctx context.Context, db *gorm.DB, ticketID string) ([]domain.TranscriptEntry, error) {
	var out []domain.TranscriptEntry
	err := db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// CountTranscript returns the number of entries logged for a ticket.
func CountTranscript(ctx context.Context, db *gorm.DB, ticketID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.TranscriptEntry{}).
		Where("ticket_id = ?", ticketID).
		Count(&total).Error
	return total, err
}
