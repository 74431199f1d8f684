// Command bot runs the Telegram bot. It long-polls Telegram, serves the
// picture-of-the-day dialogs, and fills the shared SQLite cache that the
// read API exposes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/avolkov/apod-bot/internal/bot"
	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/media"
	"github.com/avolkov/apod-bot/internal/nasa"
	"github.com/avolkov/apod-bot/internal/observability"
	"github.com/avolkov/apod-bot/internal/repo"
	"github.com/avolkov/apod-bot/internal/services"
	"github.com/avolkov/apod-bot/internal/sysutil"
	"github.com/avolkov/apod-bot/internal/translate"
)

const version = "1.0.0"

// apodRepoShim adapts the package-level repo functions to the service
// interface without widening what the service can reach.
type apodRepoShim struct{}

func (apodRepoShim) GetByDate(ctx context.Context, db *gorm.DB, date string) (*domain.Apod, error) {
	return repo.GetApodByDate(ctx, db, date)
}

func (apodRepoShim) GetByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Apod, error) {
	return repo.GetApodByID(ctx, db, id)
}

func (apodRepoShim) CreateOrGet(ctx context.Context, db *gorm.DB, a *domain.Apod) (*domain.Apod, error) {
	return repo.CreateOrGetApod(ctx, db, a)
}

func (apodRepoShim) SetFileID(ctx context.Context, db *gorm.DB, date, fileID string) error {
	return repo.SetApodFileID(ctx, db, date, fileID)
}

func (apodRepoShim) FileIDExists(ctx context.Context, db *gorm.DB, fileID string) (bool, error) {
	return repo.ApodFileIDExists(ctx, db, fileID)
}

// userRegistryShim adapts the user repository for activity registration
// and the info screen.
type userRegistryShim struct{}

func (userRegistryShim) Upsert(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.UpsertUser(ctx, db, u)
}

func (userRegistryShim) Find(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	return repo.GetUserByTelegramID(ctx, db, telegramID)
}

func (userRegistryShim) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogger(cfg)

	if cfg.Bot.Token == "" {
		log.Fatal().Msg("TELEGRAM_TOKEN must be set")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("enable db tracing")
		}
	}

	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable")
		}
		cancel()
	}
	sessions := bot.NewRedisStore(rdb, cfg.Redis.SessionTTL)

	svc := &services.ApodService{
		DB:                db,
		Repo:              apodRepoShim{},
		Source:            nasa.NewClient(cfg.NASA, nil),
		Translator:        translate.NewClient(cfg.Translate, nil),
		Downloader:        media.NewDownloader(cfg.Media),
		Scraper:           media.NewPageScraper(nil),
		TranslateEnabled:  cfg.Translate.Enabled,
		ResolveOtherMedia: cfg.Media.ResolveOtherMedia,
	}

	b, err := bot.New(cfg.Bot, db, userRegistryShim{}, svc, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("create bot")
	}

	go b.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	b.Stop()
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownOTel(ctx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}

func setupLogger(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
