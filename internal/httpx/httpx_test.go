package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON_GetDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "secret" {
			t.Errorf("X-Token = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"title": "ok"})
	}))
	defer srv.Close()

	var out struct {
		Title string `json:"title"`
	}
	err := DoJSON(context.Background(), srv.Client(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: map[string]string{"X-Token": "secret"},
	}, &out)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Title != "ok" {
		t.Errorf("decoded title = %q", out.Title)
	}
}

func TestDoJSON_PostSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if in["texts"] == nil {
			t.Error("texts missing from body")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := DoJSON(context.Background(), srv.Client(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Body:   map[string]any{"texts": []string{"a"}},
	}, nil)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
}

func TestDoJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := DoJSON(context.Background(), srv.Client(), Request{Method: http.MethodGet, URL: srv.URL}, nil)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if serr.Status != http.StatusForbidden {
		t.Errorf("status = %d", serr.Status)
	}
}

func TestDoJSON_TimeoutExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := DoJSON(context.Background(), srv.Client(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 20 * time.Millisecond,
	}, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
