// Package repo persists pictures and bot users through GORM on SQLite.
// This file opens the database and runs schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/avolkov/apod-bot/internal/domain"
)

// Both binaries share one file, so WAL plus a busy timeout keeps the api
// readable while the bot is caching a new picture.
var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// OpenSQLite opens or creates the database at path and applies the PRAGMAs
// and pool settings. The parent directory must already exist; the pure Go
// driver reports a missing directory as an opaque sqlite error otherwise.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		db.Exec(p)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for the picture cache and the
// bot's user registry.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Apod{},
		&domain.User{},
	)
}
