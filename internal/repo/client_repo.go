// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Client
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a client is not found, GetClient returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertClient merges the provided fields into the client row keyed by
// telegramID, creating the row on first contact.
//
// Merge semantics are "set if non-empty, else preserve": a registration
// step that only learned the phone must not clobber a surname written by a
// later retry, and vice versa. This is the SQL COALESCE pattern expressed
// through a selective UPDATE.
func UpsertClient(ctx context.Context, db *gorm.DB, telegramID int64, phone, surname, name, lang string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Client
		err := tx.Where("telegram_id = ?", telegramID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c := domain.Client{
				TelegramID: telegramID,
				Phone:      phone,
				Surname:    surname,
				Name:       name,
				Lang:       lang,
				CreatedAt:  time.Now().UTC(),
			}
			return tx.Create(&c).Error
		case err != nil:
			return err
		}

		updates := map[string]any{}
		if phone != "" {
			updates["phone"] = phone
		}
		if surname != "" {
			updates["surname"] = surname
		}
		if name != "" {
			updates["name"] = name
		}
		if lang != "" {
			updates["lang"] = lang
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&domain.Client{}).
			Where("telegram_id = ?", telegramID).
			Updates(updates).Error
	})
}

// GetClient fetches a client by Telegram ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetClient(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.Client, error) {
	var c domain.Client
	err := db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
