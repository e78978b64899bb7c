// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the processed-update ledger used to
// deduplicate Telegram webhook deliveries: Telegram re-sends an update
// until it gets a 2xx, and replaying a claim or a compose message would
// break the once-only event semantics.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
)

// ErrDuplicate indicates that an update with this ID was already recorded.
var ErrDuplicate = errors.New("duplicate")

// MarkUpdateProcessed records updateID as handled. It returns ErrDuplicate
// when the ID was already recorded, which callers treat as "skip this
// event, it already ran".
func MarkUpdateProcessed(ctx context.Context, db *gorm.DB, updateID int64) error {
	rec := &domain.ProcessedUpdate{
		UpdateID:  updateID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// PruneProcessedUpdates deletes ledger rows older than the retention
// window. Telegram retries for at most a day or so; anything older only
// costs space.
func PruneProcessedUpdates(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.ProcessedUpdate{})
	return res.RowsAffected, res.Error
}
