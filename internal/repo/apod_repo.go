// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Apod model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Concurrency:
//   - CreateOrGetApod is the sole race guard for duplicate-date creation:
//     two concurrent cache misses for the same unseen date may both build a
//     record, but the unique index on date discards one insert and the loser
//     re-reads the winner's row. No in-process locking is used.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avolkov/apod-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetApodByDate fetches the record for an ISO calendar date, or ErrNotFound.
func GetApodByDate(ctx context.Context, db *gorm.DB, date string) (*domain.Apod, error) {
	var a domain.Apod
	err := db.WithContext(ctx).
		Where("date = ?", date).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetApodByID fetches a record by its surrogate key, or ErrNotFound.
// Used by the read API, which addresses records by id rather than date.
func GetApodByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Apod, error) {
	var a domain.Apod
	err := db.WithContext(ctx).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateOrGetApod inserts a new record keyed by its unique date, or returns
// the existing one when the date is already present. The insert uses
// ON CONFLICT DO NOTHING so a concurrent create for the same date cannot
// fail; the follow-up read always resolves to the single winner row. A
// soft-deleted row for the date is restored instead of duplicated, since
// the unique index still sees it.
func CreateOrGetApod(ctx context.Context, db *gorm.DB, a *domain.Apod) (*domain.Apod, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return a, nil
	}
	// Lost the race (or the date was already cached): read the winner.
	rec, err := GetApodByDate(ctx, db, a.Date)
	if err == nil || !IsNotFound(err) {
		return rec, err
	}
	// The conflicting row exists but is soft-deleted, so the default scope
	// cannot see it. Restore it; the date must resolve to a live record.
	return restoreApodByDate(ctx, db, a.Date)
}

func restoreApodByDate(ctx context.Context, db *gorm.DB, date string) (*domain.Apod, error) {
	var a domain.Apod
	err := db.WithContext(ctx).Unscoped().
		Where("date = ?", date).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).Unscoped().
		Model(&domain.Apod{}).
		Where("id = ?", a.ID).
		Update("deleted_at", nil).Error
	if err != nil {
		return nil, err
	}
	a.DeletedAt = gorm.DeletedAt{}
	return &a, nil
}

// SetApodFileID backfills the Telegram file identifier for a date. The
// update is guarded by `file_id IS NULL`, so repeated backfills (or a
// concurrent first delivery) are no-ops rather than overwrites.
func SetApodFileID(ctx context.Context, db *gorm.DB, date, fileID string) error {
	return db.WithContext(ctx).
		Model(&domain.Apod{}).
		Where("date = ? AND file_id IS NULL", date).
		Update("file_id", fileID).Error
}

// ApodFileIDExists reports whether any record already carries fileID.
func ApodFileIDExists(ctx context.Context, db *gorm.DB, fileID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Apod{}).
		Where("file_id = ?", fileID).
		Count(&count).Error
	return count > 0, err
}

// IsNotFound reports whether err is the repository's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
