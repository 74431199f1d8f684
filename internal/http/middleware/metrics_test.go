package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/apodExplanation", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"explanation": "A total eclipse over the Pacific."})
	})

	base := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/apodExplanation", "200"))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/apodExplanation?apod_id=1&language_code=ru", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}

	// Three hits on one label set. The query string must not leak into the
	// path label, so all of them land on the route template.
	got := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/apodExplanation", "200"))
	if got-base != 3 {
		t.Fatalf("counter delta = %v, want 3", got-base)
	}
}

func TestMetrics_UnmatchedRouteFallsBackToRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	base := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/no-such-picture", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such-picture", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	got := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/no-such-picture", "404"))
	if got-base != 1 {
		t.Fatalf("fallback counter delta = %v, want 1", got-base)
	}
}

func TestMetrics_InflightReturnsToZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	// Status-only response also exercises the skipped size observation.
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	if v := testutil.ToFloat64(reqInflight); v != 0 {
		t.Fatalf("inflight after completion = %v, want 0", v)
	}
}
