// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avolkov/apod-bot/internal/domain"
)

// UpsertUser records a Telegram user seen by the bot, keyed by the unique
// telegram id. Profile fields and the activity timestamp are refreshed on
// every call, so the row always reflects the latest update from Telegram.
func UpsertUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.LastActivity = time.Now().Unix()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "first_name", "last_name", "language_code", "last_activity",
			}),
		}).
		Create(u).Error
}

// GetUserByTelegramID fetches a user row, or ErrNotFound.
func GetUserByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Count(&total).Error
	return total, err
}
