// Telegram bot wiring and update handlers.
//
// The dialog surface mirrors a small state machine: the main menu opens the
// picture menu (today's entry), which offers a random picture, a date
// selection step, and an on-demand explanation. Media delivery reuses stored
// Telegram file ids when available and backfills them after the first upload.
package bot

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
	"gorm.io/gorm"

	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/services"
)

// Button uniques are stable callback identifiers; the visible labels are
// localized per user.
const (
	uniqueApod        = "apod"
	uniqueRandom      = "random_apod"
	uniqueSelectDate  = "apod_date_selection"
	uniqueExplanation = "explanation"
	uniqueInfo        = "info"
	uniqueMainMenu    = "back_to_main_menu"
)

// captionLimit is Telegram's media caption size in characters.
const captionLimit = 1024

// opTimeout bounds one resolve cycle, including a possible video download.
const opTimeout = 5 * time.Minute

// Resolver is the orchestrator surface the bot consumes.
type Resolver interface {
	Resolve(ctx context.Context, req services.FetchRequest, lang string) (*services.Bundle, error)
	BackfillFileID(ctx context.Context, date, fileID string) error
	Explanation(ctx context.Context, id uint, lang string) (title, explanation string, err error)
}

// UserRegistry records and looks up users seen by the bot.
type UserRegistry interface {
	Upsert(ctx context.Context, db *gorm.DB, u *domain.User) error
	Find(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}

// Bot owns the Telegram long-poller and its handlers.
type Bot struct {
	tb       *tele.Bot
	db       *gorm.DB
	users    UserRegistry
	svc      Resolver
	sessions Store
}

// New connects to the Telegram API and registers all handlers. The returned
// Bot is inert until Start is called.
func New(cfg config.BotConfig, db *gorm.DB, users UserRegistry, svc Resolver, sessions Store) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{tb: tb, db: db, users: users, svc: svc, sessions: sessions}
	tb.OnError = b.onError
	tb.Use(b.registerActivity)
	b.routes()
	return b, nil
}

// Start drops any stale webhook and blocks polling for updates.
func (b *Bot) Start() {
	if err := b.tb.RemoveWebhook(true); err != nil {
		log.Warn().Err(err).Msg("remove webhook")
	}
	log.Info().Str("username", b.tb.Me.Username).Msg("bot started")
	b.tb.Start()
}

// Stop terminates the poller.
func (b *Bot) Stop() {
	b.tb.Stop()
	log.Info().Msg("bot stopped")
}

func (b *Bot) routes() {
	b.tb.Handle("/start", b.onStart)
	b.tb.Handle(&tele.Btn{Unique: uniqueApod}, b.onApodMenu)
	b.tb.Handle(&tele.Btn{Unique: uniqueRandom}, b.onRandom)
	b.tb.Handle(&tele.Btn{Unique: uniqueSelectDate}, b.onSelectDate)
	b.tb.Handle(&tele.Btn{Unique: uniqueExplanation}, b.onExplanation)
	b.tb.Handle(&tele.Btn{Unique: uniqueInfo}, b.onInfo)
	b.tb.Handle(&tele.Btn{Unique: uniqueMainMenu}, b.onMainMenu)
	b.tb.Handle(tele.OnText, b.onText)
}

// onError is invoked by telebot whenever a handler returns an error or
// panics. The user gets a generic message; details go to the log.
func (b *Bot) onError(err error, c tele.Context) {
	log.Error().Err(err).Msg("bot handler error")
	if c == nil {
		return
	}
	cat := b.locale(c)
	if sendErr := c.Send(cat.UnexpectedError, mainMenuMarkup(cat)); sendErr != nil {
		log.Warn().Err(sendErr).Msg("send error notice")
	}
}

// registerActivity upserts the sender on every update, keeping the user
// registry and activity timestamps current.
func (b *Bot) registerActivity(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if s := c.Sender(); s != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			u := &domain.User{
				TelegramID:   s.ID,
				Username:     optstr(s.Username),
				FirstName:    optstr(s.FirstName),
				LastName:     optstr(s.LastName),
				LanguageCode: s.LanguageCode,
			}
			if u.LanguageCode == "" {
				// Some update kinds omit the language code; keep the one
				// already on record instead of blanking it.
				if prev, err := b.users.Find(ctx, b.db, s.ID); err == nil {
					u.LanguageCode = prev.LanguageCode
				}
			}
			if err := b.users.Upsert(ctx, b.db, u); err != nil {
				log.Warn().Err(err).Int64("telegram_id", s.ID).Msg("register user activity")
			}
			cancel()
		}
		return next(c)
	}
}

func (b *Bot) locale(c tele.Context) *Catalog {
	code := ""
	if s := c.Sender(); s != nil {
		code = s.LanguageCode
		if code == "" {
			// Fall back to the language stored by registerActivity.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if u, err := b.users.Find(ctx, b.db, s.ID); err == nil {
				code = u.LanguageCode
			}
			cancel()
		}
	}
	return Locale(code)
}

//
// Handlers
//

func (b *Bot) onStart(c tele.Context) error {
	cat := b.locale(c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.sessions.Clear(ctx, c.Chat().ID); err != nil {
		log.Warn().Err(err).Msg("clear session")
	}
	return c.Send(cat.MainMenu, mainMenuMarkup(cat))
}

func (b *Bot) onMainMenu(c tele.Context) error {
	_ = c.Respond()
	return b.onStart(c)
}

func (b *Bot) onApodMenu(c tele.Context) error {
	_ = c.Respond()
	return b.showApod(c, services.FetchRequest{})
}

func (b *Bot) onRandom(c tele.Context) error {
	_ = c.Respond()
	return b.showApod(c, services.FetchRequest{Random: true})
}

func (b *Bot) onSelectDate(c tele.Context) error {
	_ = c.Respond()
	cat := b.locale(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := b.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	sess.AwaitingDate = true
	if err := b.sessions.Put(ctx, c.Chat().ID, sess); err != nil {
		return err
	}

	return c.Send(cat.DateRequest(time.Now()), dateBackMarkup(cat), tele.ModeMarkdown)
}

func (b *Bot) onExplanation(c tele.Context) error {
	_ = c.Respond()
	cat := b.locale(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, err := b.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	if sess.ApodID == 0 {
		return c.Send(cat.MainMenu, mainMenuMarkup(cat))
	}

	_, explanation, err := b.svc.Explanation(ctx, sess.ApodID, cat.Lang)
	if err != nil {
		return err
	}
	return c.Send(clipRunes(explanation, captionLimit), apodMenuMarkup(cat, false))
}

// onInfo shows the localized about screen with a usage counter.
func (b *Bot) onInfo(c tele.Context) error {
	_ = c.Respond()
	cat := b.locale(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	total, err := b.users.Count(ctx, b.db)
	if err != nil {
		log.Warn().Err(err).Msg("count users")
		total = 0 // the about text still renders, just without the counter
	}

	return c.Send(cat.Info(total), infoBackMarkup(cat), tele.ModeMarkdown)
}

// onText only matters in the date-selection step; any other text is ignored.
func (b *Bot) onText(c tele.Context) error {
	cat := b.locale(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	sess, err := b.sessions.Get(ctx, c.Chat().ID)
	cancel()
	if err != nil {
		return err
	}
	if !sess.AwaitingDate {
		return nil
	}

	now := time.Now()
	date, err := ParseDate(cat, c.Text(), now)
	switch {
	case errors.Is(err, ErrBadDateFormat):
		return c.Send(cat.IncorrectFormat+"\n\n"+cat.DateRequest(now), dateBackMarkup(cat), tele.ModeMarkdown)
	case errors.Is(err, ErrDateOutOfRange):
		return c.Send(cat.IncorrectDate+"\n\n"+cat.DateRequest(now), dateBackMarkup(cat), tele.ModeMarkdown)
	case err != nil:
		return err
	}

	return b.showApod(c, services.FetchRequest{Date: date})
}

//
// Delivery
//

// showApod resolves an entry and delivers it: stored file id when available,
// direct URL for images, disk upload for downloaded video. The first upload's
// Telegram file id is written back to the store.
func (b *Bot) showApod(c tele.Context, req services.FetchRequest) error {
	cat := b.locale(c)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	notifyResolving(c, req)

	bundle, err := b.svc.Resolve(ctx, req, cat.Lang)
	if err != nil {
		log.Error().Err(err).Str("date", req.Date).Bool("random", req.Random).Msg("resolve picture")
		return c.Send(cat.UnexpectedError, mainMenuMarkup(cat))
	}

	b.rememberShown(ctx, c.Chat().ID, bundle)

	if bundle.Unavailable || bundle.Media == nil {
		return c.Send(cat.Unavailable, apodMenuMarkup(cat, false))
	}

	payload := mediaPayload(bundle.Media, cat.Caption(bundle.Date, bundle.Title))

	sent, err := b.tb.Send(c.Chat(), payload, apodMenuMarkup(cat, true), tele.ModeMarkdown)
	if bundle.Media.LocalPath != "" {
		if rmErr := os.Remove(bundle.Media.LocalPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", bundle.Media.LocalPath).Msg("remove downloaded media")
		}
	}
	if err != nil {
		log.Error().Err(err).Str("date", bundle.Date).Msg("send media")
		return c.Send(cat.Unavailable, apodMenuMarkup(cat, false))
	}

	if bundle.Media.FileID == "" {
		if fid := sentFileID(sent); fid != "" {
			if err := b.svc.BackfillFileID(ctx, bundle.Date, fid); err != nil {
				log.Warn().Err(err).Str("date", bundle.Date).Msg("backfill file id")
			}
		}
	}
	return nil
}

// rememberShown records which picture the chat is looking at, so the
// explanation button can find it. Also leaves the date-selection step.
func (b *Bot) rememberShown(ctx context.Context, chatID int64, bundle *services.Bundle) {
	sess := Session{ApodDate: bundle.Date}
	if bundle.Record != nil {
		sess.ApodID = bundle.Record.ID
	}
	if err := b.sessions.Put(ctx, chatID, sess); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("store session")
	}
}

// notifyResolving emits a typing-style chat action while the entry resolves.
// Random requests may turn out to be videos, so the photo action is a guess;
// Telegram treats a mismatched action as harmless.
func notifyResolving(c tele.Context, _ services.FetchRequest) {
	if err := c.Notify(tele.UploadingPhoto); err != nil {
		log.Debug().Err(err).Msg("chat action")
	}
}

// mediaPayload picks the telebot sendable for a resolved media reference.
func mediaPayload(ref *services.MediaRef, caption string) interface{} {
	if ref.Kind == domain.MediaVideo {
		v := &tele.Video{Caption: caption}
		switch {
		case ref.FileID != "":
			v.File = tele.File{FileID: ref.FileID}
		case ref.LocalPath != "":
			v.File = tele.FromDisk(ref.LocalPath)
		default:
			v.File = tele.FromURL(ref.URL)
		}
		return v
	}

	p := &tele.Photo{Caption: caption}
	if ref.FileID != "" {
		p.File = tele.File{FileID: ref.FileID}
	} else {
		p.File = tele.FromURL(ref.URL)
	}
	return p
}

// sentFileID extracts the Telegram file id from a delivered media message.
func sentFileID(m *tele.Message) string {
	switch {
	case m == nil:
		return ""
	case m.Photo != nil:
		return m.Photo.FileID
	case m.Video != nil:
		return m.Video.FileID
	default:
		return ""
	}
}

//
// Markups
//

func mainMenuMarkup(cat *Catalog) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data(cat.ApodButton, uniqueApod)),
		m.Row(m.Data(cat.InfoButton, uniqueInfo)),
	)
	return m
}

func apodMenuMarkup(cat *Catalog, withExplanation bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	last := []tele.Btn{}
	if withExplanation {
		last = append(last, m.Data(cat.Explanation, uniqueExplanation))
	}
	last = append(last, m.Data(cat.MainMenu, uniqueMainMenu))
	m.Inline(
		m.Row(m.Data(cat.SelectDate, uniqueSelectDate)),
		m.Row(m.Data(cat.RandomPicture, uniqueRandom)),
		m.Row(last...),
	)
	return m
}

func dateBackMarkup(cat *Catalog) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(cat.Back, uniqueApod)))
	return m
}

func infoBackMarkup(cat *Catalog) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(cat.Back, uniqueMainMenu)))
	return m
}

// clipRunes bounds s to max runes, appending an ellipsis when truncated.
func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func optstr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
