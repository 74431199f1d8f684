// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the correlation and logging chain of the read API:
//
//   - RequestID() gives every request a stable id, propagated through the
//     X-Request-ID header and the Gin context.
//   - Logger() emits one structured access log line per request and attaches
//     a request-scoped zerolog.Logger for downstream code, e.g.
//     lg.Warn().Str("apod_date", date).Msg("stale lookup").
//   - Recovery() turns panics into the JSON 500 envelope without losing the
//     correlation id.
//
// Register them in that order so panics and errors carry the id.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDHeader carries the correlation id to and from clients.
	requestIDHeader = "X-Request-ID"
	// ctxRequestID and ctxLogger are the Gin context keys for the id and
	// the request-scoped logger.
	ctxRequestID = "requestID"
	ctxLogger    = "logger"
	// maxLoggedQuery bounds the raw query string in access logs. The API
	// takes an id and a language code; anything longer is noise.
	maxLoggedQuery = 1024
)

// RequestID reuses the client-supplied X-Request-ID when present and
// generates a UUID otherwise. The id goes into the response header and the
// Gin context for the rest of the chain.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one access log line per request and stores a request-scoped
// zerolog.Logger in the context for LoggerFrom. The line is emitted at error
// level for 5xx or collected Gin errors, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := log.With().
			Str("request_id", c.GetString(ctxRequestID)).
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Str("remote_ip", c.ClientIP()).
			Str("query", clipQuery(c.Request.URL.RawQuery)).
			Logger()
		c.Set(ctxLogger, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("request")
	}
}

// Recovery logs the panic with its stack and answers with the standard JSON
// 500 envelope, unless a response was already underway.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(ctxRequestID)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by Logger, or the
// global logger when none is present. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// routePath prefers the matched route template over the raw URL path, so
// requests to parameterized routes aggregate under one label.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func clipQuery(q string) string {
	if len(q) <= maxLoggedQuery {
		return q
	}
	return q[:maxLoggedQuery] + "…"
}
