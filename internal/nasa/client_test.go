package nasa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/domain"
)

func testCfg(base string) config.NASAConfig {
	return config.NASAConfig{
		BaseURL:     base,
		APIKey:      "TEST_KEY",
		PageBaseURL: "https://apod.nasa.gov/apod",
		Timeout:     5 * time.Second,
		RPS:         100,
	}
}

func TestFetch_ByDate(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"api_key": r.URL.Query().Get("api_key"),
			"date":    r.URL.Query().Get("date"),
			"count":   r.URL.Query().Get("count"),
		}
		_, _ = w.Write([]byte(`{
			"date": "2025-05-05",
			"title": "Test title",
			"explanation": "Test explanation",
			"url": "https://x/fake.jpg",
			"media_type": "image",
			"copyright": "Someone",
			"service_version": "v1"
		}`))
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL), srv.Client())
	item, err := c.Fetch(context.Background(), "2025-05-05", false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery["api_key"] != "TEST_KEY" || gotQuery["date"] != "2025-05-05" || gotQuery["count"] != "" {
		t.Errorf("unexpected query: %v", gotQuery)
	}
	if item.Title != "Test title" || item.Kind() != domain.MediaImage {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestFetch_RandomNormalizesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("count") != "1" {
			t.Errorf("count = %q", r.URL.Query().Get("count"))
		}
		if r.URL.Query().Get("date") != "" {
			t.Errorf("date should be empty for random pulls")
		}
		_, _ = w.Write([]byte(`[{
			"date": "2001-09-09",
			"title": "Random one",
			"explanation": "E",
			"url": "https://x/r.jpg",
			"media_type": "image"
		}]`))
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL), srv.Client())
	item, err := c.Fetch(context.Background(), "", true)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if item.Date != "2001-09-09" || item.Title != "Random one" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestFetch_DateWinsOverRandom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2025-01-01" || r.URL.Query().Get("count") != "" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"date":"2025-01-01","title":"T","explanation":"E","url":"u","media_type":"image"}`))
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL), srv.Client())
	if _, err := c.Fetch(context.Background(), "2025-01-01", true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetch_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL), srv.Client())
	if _, err := c.Fetch(context.Background(), "", true); err != ErrEmptyResponse {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL), srv.Client())
	if _, err := c.Fetch(context.Background(), "2025-05-05", false); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestPageURL(t *testing.T) {
	c := NewClient(testCfg("https://api.nasa.gov"), nil)
	if got := c.PageURL("2025-05-05"); got != "https://apod.nasa.gov/apod/ap250505.html" {
		t.Errorf("PageURL = %q", got)
	}
	if got := c.PageURL("1996-12-01"); got != "https://apod.nasa.gov/apod/ap961201.html" {
		t.Errorf("PageURL = %q", got)
	}
}
