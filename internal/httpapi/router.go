// Package httpapi exposes the read-only HTTP surface of the picture cache.
//
// This file assembles the Gin engine: tracing, request correlation,
// logging, recovery, metrics, throttling, CORS, compression, and security
// headers, then the /apodExplanation endpoint on top. The bot writes the
// cache; this server only reads it.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/http/middleware"
	"github.com/avolkov/apod-bot/internal/repo"
	"github.com/avolkov/apod-bot/internal/services"
)

// apodRepoShim bridges the repo package's free functions onto the
// services.ApodRepo interface, so the service layer never imports repo.
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

// RegisterRoutes mounts the middleware chain and every endpoint on r.
// Ordering matters: the request id must exist before the logger runs, the
// logger before recovery, and the limiter sits after metrics so rejected
// requests are still counted.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	// Every endpoint is a GET; a body this large is not a legitimate client.
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	applyCORS(r, cfg.CORS.AllowedOrigins)

	// Response compression (explanations are long prose and compress well)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Security headers. Stored explanations are immutable, so GET responses
	// carry an hour of public cacheability; /health opts back out below.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:  cfg.Security.EnableHSTS,
		HSTSMaxAge:  cfg.Security.HSTSMaxAge,
		CacheMaxAge: time.Hour,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health. Never cached: a proxy holding onto a stale "ok"
	// would defeat the point.
	r.GET("/health", func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: the read API only needs store access.
	svc := &services.ApodService{DB: db, Repo: apodRepoShim{}}
	h := New(svc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/apodExplanation", h.GetApodExplanation)
	}
}

// applyCORS installs the cross-origin policy. With no configured origins
// the explanation API is treated as public data and opened to everyone;
// with an allowlist, the matching origin is echoed and Vary: Origin keeps
// shared caches honest.
func applyCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		// gin-contrib/cors skips requests without an Origin header, but
		// plain curl and health probes should see the wildcard too.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody caps request bodies with http.MaxBytesReader; reads past the
// cap fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix; "" and "/" mean the root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
