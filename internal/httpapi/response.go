// Package httpapi exposes the read-only HTTP surface of the picture cache.
//
// This file holds the response helpers every endpoint shares. Errors always
// travel in the ErrorResponse envelope with a stable machine-readable code,
// e.g.:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "picture not found"
//	}
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/apod-bot/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints. RequestID
// echoes the X-Request-ID header so clients can cite it; Code is one of the
// constants in errors.go.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"picture not found"`
}

// fail aborts the request with the standard envelope. Server-side failures
// are logged through the request-scoped logger; 4xx responses are the
// client's problem and stay out of the error log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
