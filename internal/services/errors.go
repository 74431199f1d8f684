// Package services defines the business logic for resolving, caching, and
// serving picture-of-the-day content. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler/bot layer.
package services

import "errors"

var (
	// ErrApodNotFound indicates that the requested record does not exist.
	ErrApodNotFound = errors.New("apod not found")

	// ErrEmptyFileID is returned when a backfill is attempted with an
	// empty Telegram file identifier.
	ErrEmptyFileID = errors.New("file id is empty")
)
