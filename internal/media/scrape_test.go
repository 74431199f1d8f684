package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScrape_ExtractsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<video controls>
				<source src="https://apod.nasa.gov/apod/image/clip.mp4" type="video/mp4">
			</video>
		</body></html>`))
	}))
	defer srv.Close()

	s := NewPageScraper(srv.Client())
	src, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if src.URL != "https://apod.nasa.gov/apod/image/clip.mp4" {
		t.Errorf("URL = %q", src.URL)
	}
	if src.Kind != "video" {
		t.Errorf("Kind = %q", src.Kind)
	}
}

func TestScrape_NoSourceTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing embedded here</p></body></html>`))
	}))
	defer srv.Close()

	s := NewPageScraper(srv.Client())
	if _, err := s.Scrape(context.Background(), srv.URL); !errors.Is(err, ErrNoEmbeddedSource) {
		t.Fatalf("err = %v, want ErrNoEmbeddedSource", err)
	}
}

func TestScrape_SourceWithoutType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><source src="https://x/clip.mp4"></body></html>`))
	}))
	defer srv.Close()

	s := NewPageScraper(srv.Client())
	if _, err := s.Scrape(context.Background(), srv.URL); !errors.Is(err, ErrNoEmbeddedSource) {
		t.Fatalf("err = %v, want ErrNoEmbeddedSource", err)
	}
}

func TestScrape_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewPageScraper(srv.Client())
	if _, err := s.Scrape(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 404 page")
	}
}
