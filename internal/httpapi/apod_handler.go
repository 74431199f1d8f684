// Picture-of-the-day HTTP handlers.
//
// This file exposes the read-only REST endpoint backing the bot's web views:
//   - GET /apodExplanation   (stored title + explanation for a cached picture)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/apod-bot/internal/services"
	"github.com/avolkov/apod-bot/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// ExplanationService defines the lookup operation consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ExplanationService interface {
	// Explanation returns the stored, language-selected title and explanation
	// for a cached picture id.
	Explanation(ctx context.Context, id uint, lang string) (title, explanation string, err error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the read API. It depends on an
// abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	apodSvc ExplanationService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(apodSvc ExplanationService) *Handlers {
	return &Handlers{apodSvc: apodSvc}
}

//
// DTOs
//

// ExplanationResponse is the JSON body returned for a cached picture.
type ExplanationResponse struct {
	// Title is the picture title in the requested language.
	Title string `json:"title" example:"The Horsehead Nebula"`
	// Explanation is the descriptive text in the requested language.
	Explanation string `json:"explanation" example:"One of the most identifiable nebulae in the sky..."`
}

//
// Handlers
//

// GetApodExplanation godoc
// @ID          getApodExplanation
// @Summary     Get a stored picture explanation
// @Description Returns the cached title and explanation for a picture id, in the requested language when a translation is stored.
// @Tags        Apod
// @Produce     json
//
// @Param       apod_id        query  int     true  "Cached picture ID"        minimum(1) example(42)
// @Param       language_code  query  string  false "BCP 47 language code"     default(en) example(ru)
//
// @Success     200  {object}  httpapi.ExplanationResponse
// @Failure     400  {object}  httpapi.ErrorResponse  "Bad request"
// @Failure     404  {object}  httpapi.ErrorResponse  "Picture not found"
// @Failure     500  {object}  httpapi.ErrorResponse  "Internal error"
// @Router      /apodExplanation [get]
func (h *Handlers) GetApodExplanation(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("apod_id"))
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "apod_id query parameter required")
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "apod_id must be a positive integer")
		return
	}

	lang := normalizeLang(c.Query("language_code"))

	title, explanation, err := h.apodSvc.Explanation(c.Request.Context(), uint(id), lang)
	if err != nil {
		if errors.Is(err, services.ErrApodNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "picture not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeLookupFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ExplanationResponse{Title: title, Explanation: explanation})
}

// normalizeLang reduces a BCP 47 tag to its lowercase base language
// ("ru-RU" -> "ru"). Empty input defaults to English.
func normalizeLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	base, _, _ := strings.Cut(code, "-")
	return sysutil.FirstNonEmpty(base, "en")
}
