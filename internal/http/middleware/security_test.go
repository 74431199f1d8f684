package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, mw := range pre {
		r.Use(mw)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/apodExplanation", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"title": "Odysseus on the Moon"})
	})
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation?apod_id=1", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" {
		t.Fatalf("feature lockdown missing: %#v", h)
	}
	// No caching and no HSTS unless asked for.
	if h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected opt-in headers: %#v", h)
	}
}

func TestSecurityHeaders_CachePolicy(t *testing.T) {
	r := securityRouter(SecurityOptions{CacheMaxAge: time.Hour})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation?apod_id=1", nil))
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("Cache-Control = %q", got)
	}

	// Only GETs are cacheable; everything else on this API is an error path.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/apodExplanation", nil))
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("Cache-Control on POST = %q", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})

	// Plain HTTP never gets HSTS.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS on plain HTTP: %q", got)
	}

	// Direct TLS.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/apodExplanation", nil)
	req.TLS = &tls.ConnectionState{}
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}

	// HTTPS terminated at the proxy; default max-age kicks in for zero.
	r = securityRouter(SecurityOptions{EnableHSTS: true})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/apodExplanation", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("default HSTS = %q", got)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	setRID := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-123")
		c.Next()
	}

	r := securityRouter(SecurityOptions{}, setRID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Fatalf("expose header = %q", got)
	}

	// Appended to an existing list, never duplicated.
	withExisting := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-123")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Next()
	}
	r = securityRouter(SecurityOptions{}, withExisting)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Content-Length, X-Request-ID" {
		t.Fatalf("appended expose header = %q", got)
	}

	alreadyThere := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-123")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Length")
		c.Next()
	}
	r = securityRouter(SecurityOptions{}, alreadyThere)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apodExplanation", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Content-Length" {
		t.Fatalf("expose header changed: %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(plain) {
		t.Fatal("plain HTTP reported as https")
	}

	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	if !isHTTPS(direct) {
		t.Fatal("TLS request not reported as https")
	}

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(proxied) {
		t.Fatal("forwarded https not recognized")
	}
}
