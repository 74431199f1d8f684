package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/apod-bot/internal/services"
)

// fakeExplanationSvc records the lookup arguments and returns canned values.
type fakeExplanationSvc struct {
	title string
	expl  string
	err   error

	gotID   uint
	gotLang string
}

func (f *fakeExplanationSvc) Explanation(_ context.Context, id uint, lang string) (string, string, error) {
	f.gotID = id
	f.gotLang = lang
	if f.err != nil {
		return "", "", f.err
	}
	return f.title, f.expl, nil
}

func newHandlerRouter(svc ExplanationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	r.GET("/apodExplanation", h.GetApodExplanation)
	return r
}

func doGet(t *testing.T, r *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetApodExplanation_Success(t *testing.T) {
	svc := &fakeExplanationSvc{title: "Horsehead Nebula", expl: "A dark nebula in Orion."}
	r := newHandlerRouter(svc)

	w := doGet(t, r, "/apodExplanation?apod_id=42")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp ExplanationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Title != "Horsehead Nebula" || resp.Explanation != "A dark nebula in Orion." {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if svc.gotID != 42 {
		t.Fatalf("service got id %d, want 42", svc.gotID)
	}
	if svc.gotLang != "en" {
		t.Fatalf("default language = %q, want en", svc.gotLang)
	}
}

func TestGetApodExplanation_LanguageNormalization(t *testing.T) {
	svc := &fakeExplanationSvc{title: "t", expl: "e"}
	r := newHandlerRouter(svc)

	w := doGet(t, r, "/apodExplanation?apod_id=7&language_code=ru-RU")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.gotLang != "ru" {
		t.Fatalf("language = %q, want ru", svc.gotLang)
	}
}

func TestGetApodExplanation_BadID(t *testing.T) {
	for _, target := range []string{
		"/apodExplanation",                // missing
		"/apodExplanation?apod_id=",       // empty
		"/apodExplanation?apod_id=abc",    // non-numeric
		"/apodExplanation?apod_id=0",      // zero
		"/apodExplanation?apod_id=-3",     // negative
		"/apodExplanation?apod_id=1.5",    // fractional
		"/apodExplanation?apod_id=%20%20", // whitespace only
	} {
		svc := &fakeExplanationSvc{}
		r := newHandlerRouter(svc)

		w := doGet(t, r, target)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: invalid JSON: %v", target, err)
		}
		if resp.Code != ErrCodeBadRequest {
			t.Fatalf("%s: code = %q, want %q", target, resp.Code, ErrCodeBadRequest)
		}
		if svc.gotID != 0 {
			t.Fatalf("%s: service should not have been called", target)
		}
	}
}

func TestGetApodExplanation_NotFound(t *testing.T) {
	svc := &fakeExplanationSvc{err: services.ErrApodNotFound}
	r := newHandlerRouter(svc)

	w := doGet(t, r, "/apodExplanation?apod_id=999")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Code != ErrCodeNotFound {
		t.Fatalf("code = %q, want %q", resp.Code, ErrCodeNotFound)
	}
}

func TestGetApodExplanation_ServiceError(t *testing.T) {
	svc := &fakeExplanationSvc{err: errors.New("store unavailable")}
	r := newHandlerRouter(svc)

	w := doGet(t, r, "/apodExplanation?apod_id=1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Code != ErrCodeLookupFailed {
		t.Fatalf("code = %q, want %q", resp.Code, ErrCodeLookupFailed)
	}
}

func TestNormalizeLang(t *testing.T) {
	cases := map[string]string{
		"":        "en",
		"  ":      "en",
		"en":      "en",
		"EN":      "en",
		"ru":      "ru",
		"ru-RU":   "ru",
		"en-GB":   "en",
		"pt-BR":   "pt",
		"sr-Latn": "sr",
	}
	for in, want := range cases {
		if got := normalizeLang(in); got != want {
			t.Fatalf("normalizeLang(%q) = %q, want %q", in, got, want)
		}
	}
}
