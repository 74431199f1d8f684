// Package services – ApodService
//
// This file implements the ApodService, the cache/fetch orchestrator at the
// center of the application. Given a fetch request (a specific date, a
// random pull, or "today"), it produces a fully-prepared content bundle
// while keeping calls to the paid, rate-limited external services to a
// minimum:
//
//   - a date already delivered once is served entirely from the database
//     (stored text plus the cached Telegram file id, zero network calls);
//   - a date with stored text but no file id re-resolves only the media;
//   - a date never seen before is fetched from the feed, translated in one
//     batched call when enabled, persisted via get-or-create, and then has
//     its media resolved.
//
// Media resolution is a closed three-way switch on the record's media type.
// Video downloads that fail are downgraded to an "unavailable" bundle (the
// text is still served); feed and translator failures are fatal for the
// request. Per-call timeouts live inside the collaborator clients.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/media"
	"github.com/avolkov/apod-bot/internal/nasa"
	"github.com/avolkov/apod-bot/internal/repo"
)

// FetchRequest selects which entry to resolve. An explicit Date wins over
// Random; with neither set, the current calendar date is used.
type FetchRequest struct {
	Date   string // ISO calendar date (YYYY-MM-DD), optional
	Random bool   // pull an arbitrary entry; never cache-satisfied
}

// MediaRef points at the displayable media asset in exactly one of three
// forms: a reusable Telegram file id, a directly-sendable remote URL, or a
// freshly downloaded local file that still needs uploading.
type MediaRef struct {
	Kind      domain.MediaType
	FileID    string
	URL       string
	LocalPath string
}

// Bundle is the fully-resolved result of one fetch request, ready for the
// presentation layer to render.
type Bundle struct {
	Date        string
	Title       string // language-selected
	Explanation string // language-selected
	Media       *MediaRef
	Unavailable bool // media could not be resolved; text is still valid
	Record      *domain.Apod
}

// ContentSource is the picture-of-the-day feed contract.
type ContentSource interface {
	// Fetch retrieves one entry by date, or an arbitrary one when random.
	Fetch(ctx context.Context, date string, random bool) (*nasa.Item, error)
	// PageURL returns the HTML archive page for a date ("other" fallback).
	PageURL(date string) string
}

// Translator is the batch translation contract. Implementations must be
// order-preserving and return exactly one result per input.
type Translator interface {
	Translate(ctx context.Context, texts []string) ([]string, error)
}

// VideoDownloader retrieves a remote video as a local file.
type VideoDownloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// PageScraper recovers an embedded media source from an archive HTML page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (*media.Source, error)
}

// ApodRepo defines the repository contract required by ApodService.
type ApodRepo interface {
	// GetByDate fetches a record by its unique calendar date.
	GetByDate(ctx context.Context, db *gorm.DB, date string) (*domain.Apod, error)

	// GetByID fetches a record by surrogate key (read API).
	GetByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Apod, error)

	// CreateOrGet inserts a record or returns the existing row for its date.
	CreateOrGet(ctx context.Context, db *gorm.DB, a *domain.Apod) (*domain.Apod, error)

	// SetFileID backfills the Telegram file id when none is stored yet.
	SetFileID(ctx context.Context, db *gorm.DB, date, fileID string) error

	// FileIDExists reports whether any record already carries fileID.
	FileIDExists(ctx context.Context, db *gorm.DB, fileID string) (bool, error)
}

// ApodService orchestrates cache lookups, feed fetches, translation, and
// media resolution for picture-of-the-day requests.
type ApodService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo ApodRepo

	Source     ContentSource
	Translator Translator
	Downloader VideoDownloader
	Scraper    PageScraper

	// TranslateEnabled gates the single batched translation per cache miss.
	TranslateEnabled bool
	// ResolveOtherMedia gates the HTML fallback for "other"-typed entries.
	// Deliberately independent of TranslateEnabled.
	ResolveOtherMedia bool

	// Now is the clock used to default empty requests to "today";
	// overridable in tests.
	Now func() time.Time
}

// isoDate is the calendar date layout used by the feed and the store.
const isoDate = "2006-01-02"

// today returns the current server-local calendar date.
func (s *ApodService) today() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().Format(isoDate)
}

// Resolve produces a content bundle for req. lang selects which text
// variant ("ru" or anything else for English) ends up on the bundle.
//
// The random path always goes to the feed: its date is unknown beforehand,
// so a cache lookup cannot be keyed. An explicit date wins when both are
// set. Feed and translator errors are fatal for the request; media
// resolution failures downgrade to Unavailable.
func (s *ApodService) Resolve(ctx context.Context, req FetchRequest, lang string) (*Bundle, error) {
	random := req.Random && req.Date == ""

	date := req.Date
	if date == "" && !random {
		date = s.today()
	}

	if !random {
		rec, err := s.Repo.GetByDate(ctx, s.DB, date)
		switch {
		case err == nil && rec.FileID != nil:
			// Fully cached: stored text plus a reusable file id, no
			// network calls at all.
			return s.bundle(rec, &MediaRef{Kind: rec.MediaType, FileID: *rec.FileID}, false, lang), nil
		case err == nil:
			// Text is cached but the media was never delivered; only the
			// media needs resolving again.
			return s.resolveMedia(ctx, rec, lang)
		case !repo.IsNotFound(err):
			return nil, err
		}
	}

	item, err := s.Source.Fetch(ctx, req.Date, random)
	if err != nil {
		return nil, err
	}

	fields := &domain.Apod{
		Date:        item.Date,
		Title:       item.Title,
		Explanation: item.Explanation,
		URL:         item.URL,
		HDURL:       item.HDURL,
		MediaType:   item.Kind(),
	}

	if s.TranslateEnabled {
		// One batched call per miss; index 0 is the title, index 1 the
		// explanation. A partial result is never stored.
		tr, err := s.Translator.Translate(ctx, []string{item.Title, item.Explanation})
		if err != nil {
			return nil, err
		}
		if len(tr) != 2 {
			return nil, fmt.Errorf("translator returned %d results for 2 inputs", len(tr))
		}
		fields.TitleRu = &tr[0]
		fields.ExplanationRu = &tr[1]
	}

	rec, err := s.Repo.CreateOrGet(ctx, s.DB, fields)
	if err != nil {
		return nil, err
	}

	return s.resolveMedia(ctx, rec, lang)
}

// resolveMedia turns a stored record into a bundle by materializing its
// media reference. Video and "other" failures are soft: the bundle comes
// back without media and with Unavailable set.
func (s *ApodService) resolveMedia(ctx context.Context, rec *domain.Apod, lang string) (*Bundle, error) {
	switch rec.MediaType {
	case domain.MediaImage:
		return s.bundle(rec, &MediaRef{Kind: domain.MediaImage, URL: displayImageURL(rec)}, false, lang), nil

	case domain.MediaVideo:
		return s.downloadVideo(ctx, rec, rec.URL, lang), nil

	case domain.MediaOther:
		if !s.ResolveOtherMedia {
			return s.bundle(rec, nil, true, lang), nil
		}
		src, err := s.Scraper.Scrape(ctx, s.Source.PageURL(rec.Date))
		if err != nil {
			log.Warn().Err(err).Str("date", rec.Date).Msg("archive page scrape failed")
			return s.bundle(rec, nil, true, lang), nil
		}
		switch domain.ParseMediaType(src.Kind) {
		case domain.MediaImage:
			return s.bundle(rec, &MediaRef{Kind: domain.MediaImage, URL: src.URL}, false, lang), nil
		case domain.MediaVideo:
			return s.downloadVideo(ctx, rec, src.URL, lang), nil
		default:
			return s.bundle(rec, nil, true, lang), nil
		}
	}

	// MediaType is a closed enum; an unknown value means a corrupted row.
	log.Error().Str("date", rec.Date).Str("media_type", string(rec.MediaType)).Msg("unknown media type in store")
	return s.bundle(rec, nil, true, lang), nil
}

// downloadVideo fetches url to a local file, downgrading failures to an
// unavailable bundle rather than failing the request.
func (s *ApodService) downloadVideo(ctx context.Context, rec *domain.Apod, url, lang string) *Bundle {
	path, err := s.Downloader.Download(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("date", rec.Date).Str("url", url).Msg("video unavailable")
		return s.bundle(rec, nil, true, lang)
	}
	return s.bundle(rec, &MediaRef{Kind: domain.MediaVideo, LocalPath: path}, false, lang)
}

// bundle assembles the language-selected view over a stored record.
func (s *ApodService) bundle(rec *domain.Apod, ref *MediaRef, unavailable bool, lang string) *Bundle {
	title, explanation := textForLanguage(rec, lang)
	return &Bundle{
		Date:        rec.Date,
		Title:       title,
		Explanation: explanation,
		Media:       ref,
		Unavailable: unavailable,
		Record:      rec,
	}
}

// BackfillFileID stores the Telegram file id for a date after the media has
// been delivered once. Repeated backfills are no-ops: a handle that is
// already known anywhere in the store short-circuits, and the underlying
// update only writes when the record has no handle yet.
func (s *ApodService) BackfillFileID(ctx context.Context, date, fileID string) error {
	if fileID == "" {
		return ErrEmptyFileID
	}
	exists, err := s.Repo.FileIDExists(ctx, s.DB, fileID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Repo.SetFileID(ctx, s.DB, date, fileID)
}

// Explanation returns the stored title and explanation for a record id,
// language-selected. Used by the read API; returns ErrApodNotFound for
// unknown ids.
func (s *ApodService) Explanation(ctx context.Context, id uint, lang string) (title, explanation string, err error) {
	rec, err := s.Repo.GetByID(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", "", ErrApodNotFound
		}
		return "", "", err
	}
	title, explanation = textForLanguage(rec, lang)
	return title, explanation, nil
}

// textForLanguage picks the Russian variant when requested and present,
// falling back to the original English text.
func textForLanguage(rec *domain.Apod, lang string) (string, string) {
	if lang == "ru" && rec.Translated() {
		return *rec.TitleRu, *rec.ExplanationRu
	}
	return rec.Title, rec.Explanation
}

// imageExtensions are URL suffixes that already denote a static image.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// displayImageURL prefers the high-definition variant unless the primary
// URL already points at a static image file.
func displayImageURL(rec *domain.Apod) string {
	lower := strings.ToLower(rec.URL)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return rec.URL
		}
	}
	if rec.HDURL != nil && *rec.HDURL != "" {
		return *rec.HDURL
	}
	return rec.URL
}
