// Package domain defines the persistence models for APOD records and bot
// users. These types are mapped with GORM and form the core data layer of
// the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// MediaType classifies the media asset attached to an APOD entry.
// The feed reports "image" and "video"; anything else is folded into
// MediaOther and resolved (if at all) by the HTML fallback.
type MediaType string

// Media types reported by the picture-of-the-day feed.
const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaOther MediaType = "other"
)

// ParseMediaType maps a raw feed string onto a MediaType. Unknown values
// become MediaOther so that resolution is an exhaustive three-way switch.
func ParseMediaType(s string) MediaType {
	switch MediaType(s) {
	case MediaImage:
		return MediaImage
	case MediaVideo:
		return MediaVideo
	default:
		return MediaOther
	}
}

// Valid reports whether t is one of the closed set of media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaOther:
		return true
	}
	return false
}

// Apod is the cached record for a single picture-of-the-day entry, keyed by
// calendar date. Text and media fields are immutable after creation; FileID
// is backfilled exactly once after the media has been delivered through
// Telegram for the first time.
//
// Fields:
//   - ID: auto-increment surrogate key, used by the read API.
//   - Date: ISO calendar date (YYYY-MM-DD), unique business key.
//   - Title / Explanation: original English text from the feed.
//   - TitleRu / ExplanationRu: translations; set together or not at all.
//   - URL / HDURL: media URLs as reported by the feed.
//   - MediaType: image, video, or other.
//   - FileID: Telegram file identifier captured after first delivery.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Apod struct {
	ID            uint           `json:"id"             gorm:"primaryKey;autoIncrement"`
	Date          string         `json:"date"           gorm:"type:char(10);not null;uniqueIndex:ux_apod_date"`
	Title         string         `json:"title"          gorm:"type:varchar(255);not null"`
	TitleRu       *string        `json:"title_ru,omitempty"       gorm:"type:varchar(255)"`
	Explanation   string         `json:"explanation"    gorm:"type:text;not null"`
	ExplanationRu *string        `json:"explanation_ru,omitempty" gorm:"type:text"`
	URL           string         `json:"url"            gorm:"type:varchar(512);not null"`
	HDURL         *string        `json:"hdurl,omitempty"          gorm:"type:varchar(512)"`
	MediaType     MediaType      `json:"media_type"     gorm:"type:varchar(16);not null;check:media_type IN ('image','video','other')"`
	FileID        *string        `json:"-"              gorm:"type:varchar(256);index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Apod.
func (Apod) TableName() string { return "apod" }

// Translated reports whether the record carries a complete translation.
// TitleRu and ExplanationRu are written in one batch, so both are either
// present or absent.
func (a *Apod) Translated() bool {
	return a.TitleRu != nil && a.ExplanationRu != nil
}

// User is a Telegram user seen by the bot. Rows are upserted by the
// activity-registration middleware on every incoming update.
type User struct {
	ID           uint           `json:"id"            gorm:"primaryKey;autoIncrement"`
	TelegramID   int64          `json:"telegram_id"   gorm:"not null;uniqueIndex:ux_users_telegram_id"`
	Username     *string        `json:"username,omitempty"   gorm:"type:varchar(100)"`
	FirstName    *string        `json:"first_name,omitempty" gorm:"type:varchar(100)"`
	LastName     *string        `json:"last_name,omitempty"  gorm:"type:varchar(100)"`
	LanguageCode string         `json:"language_code" gorm:"type:varchar(8);not null"`
	LastActivity int64          `json:"last_activity" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
