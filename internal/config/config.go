// Package config loads every setting of the bot and the read API from the
// environment, with defaults and validation. One Config feeds both
// binaries so the pair always agree on the database path and the
// collaborator endpoints.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// BotConfig defines Telegram bot settings.
type BotConfig struct {
	Token       string        // TELEGRAM_TOKEN
	PollTimeout time.Duration // TELEGRAM_POLL_TIMEOUT (long-poll interval)
}

// NASAConfig defines settings for the picture-of-the-day feed.
type NASAConfig struct {
	BaseURL     string        // NASA_API_BASE_URL (e.g. "https://api.nasa.gov")
	APIKey      string        // NASA_API_KEY
	PageBaseURL string        // NASA_APOD_PAGE_BASE_URL (HTML archive, for the "other" fallback)
	Timeout     time.Duration // NASA_TIMEOUT per-request deadline
	RPS         float64       // NASA_RPS client-side pacing (the feed is quota-limited)
}

// TranslateConfig defines settings for the batch translation API.
type TranslateConfig struct {
	Enabled  bool          // TRANSLATE_ENABLED
	URL      string        // TRANSLATE_API_URL
	APIKey   string        // TRANSLATE_API_KEY
	FolderID string        // TRANSLATE_FOLDER_ID (cloud folder for the API key)
	Timeout  time.Duration // TRANSLATE_TIMEOUT per-request deadline
}

// MediaConfig defines settings for video downloading and the HTML fallback.
type MediaConfig struct {
	TempDir           string        // MEDIA_TEMP_DIR for downloaded/transcoded files
	YtdlpPath         string        // YTDLP_PATH binary name or absolute path
	Quiet             bool          // MEDIA_QUIET_DOWNLOADS suppresses downloader output
	Timeout           time.Duration // MEDIA_TIMEOUT bound on a single download
	ResolveOtherMedia bool          // RESOLVE_OTHER_MEDIA enables the HTML <source> fallback
}

// RedisConfig defines the session-state store used by the bot dialogs.
type RedisConfig struct {
	Addr       string        // REDIS_ADDR
	Password   string        // REDIS_PASSWORD
	DB         int           // REDIS_DB
	SessionTTL time.Duration // SESSION_TTL for per-chat dialog state
}

// CORSConfig defines Cross-Origin Resource Sharing settings for the read API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls the HSTS header on the read API.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures OTLP trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port of the collector
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE skips TLS
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config is everything both binaries need, grouped by concern.
type Config struct {
	// HTTP server (read API)
	Port              string // PORT, number only
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	APIBasePath       string // mount point for API routes
	SwaggerEnabled    bool   // serve the Swagger UI

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Persistence
	DBPath string // SQLite path

	// Rate limiting (read API)
	RateRPS   float64 // RATE_RPS, tokens per second
	RateBurst int     // RATE_BURST, bucket size

	// Collaborators
	Bot       BotConfig
	NASA      NASAConfig
	Translate TranslateConfig
	Media     MediaConfig
	Redis     RedisConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main functions; it panics on invalid configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, fills defaults, normalizes a few lenient
// inputs, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// HTTP server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/")),
		SwaggerEnabled:    getbool("SWAGGER_ENABLED", false),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Persistence
		DBPath: getenv("DB_PATH", "apod.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		Bot: BotConfig{
			Token:       getenv("TELEGRAM_TOKEN", ""),
			PollTimeout: getdur("TELEGRAM_POLL_TIMEOUT", 10*time.Second),
		},
		NASA: NASAConfig{
			BaseURL:     getenv("NASA_API_BASE_URL", "https://api.nasa.gov"),
			APIKey:      getenv("NASA_API_KEY", "DEMO_KEY"),
			PageBaseURL: getenv("NASA_APOD_PAGE_BASE_URL", "https://apod.nasa.gov/apod"),
			Timeout:     getdur("NASA_TIMEOUT", 15*time.Second),
			RPS:         getfloat("NASA_RPS", 1.0),
		},
		Translate: TranslateConfig{
			Enabled:  getbool("TRANSLATE_ENABLED", true),
			URL:      getenv("TRANSLATE_API_URL", ""),
			APIKey:   getenv("TRANSLATE_API_KEY", ""),
			FolderID: getenv("TRANSLATE_FOLDER_ID", ""),
			Timeout:  getdur("TRANSLATE_TIMEOUT", 10*time.Second),
		},
		Media: MediaConfig{
			TempDir:           getenv("MEDIA_TEMP_DIR", os.TempDir()),
			YtdlpPath:         getenv("YTDLP_PATH", "yt-dlp"),
			Quiet:             getbool("MEDIA_QUIET_DOWNLOADS", true),
			Timeout:           getdur("MEDIA_TIMEOUT", 2*time.Minute),
			ResolveOtherMedia: getbool("RESOLVE_OTHER_MEDIA", true),
		},
		Redis: RedisConfig{
			Addr:       getenv("REDIS_ADDR", "localhost:6379"),
			Password:   getenv("REDIS_PASSWORD", ""),
			DB:         getint("REDIS_DB", 0),
			SessionTTL: getdur("SESSION_TTL", 24*time.Hour),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "apod-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// Lenient inputs first, then hard validation.
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if strings.TrimSpace(cfg.NASA.BaseURL) == "" {
		return cfg, errors.New("NASA_API_BASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.NASA.PageBaseURL) == "" {
		return cfg, errors.New("NASA_APOD_PAGE_BASE_URL must not be empty")
	}
	if cfg.NASA.Timeout <= 0 || cfg.Translate.Timeout <= 0 || cfg.Media.Timeout <= 0 {
		return cfg, errors.New("collaborator timeouts must be positive durations")
	}
	if cfg.NASA.RPS <= 0 {
		return cfg, errors.New("NASA_RPS must be > 0")
	}
	if cfg.Translate.Enabled && strings.TrimSpace(cfg.Translate.URL) == "" {
		return cfg, errors.New("TRANSLATE_API_URL must be set when TRANSLATE_ENABLED")
	}
	if strings.TrimSpace(cfg.Media.TempDir) == "" {
		return cfg, errors.New("MEDIA_TEMP_DIR must not be empty")
	}
	if cfg.Redis.SessionTTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// Env readers. A set-but-unparsable value falls back to the default; a
// typo'd override should not take the bot down.

func lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	return v, ok && v != ""
}

func getenv(k, def string) string {
	if v, ok := lookup(k); ok {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getint(k string, def int) int {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getbool(k string, def bool) bool {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath guarantees a leading slash and no trailing slash, so
// route registration can concatenate without doubling separators. The bare
// root stays "/".
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	for len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}
