// Package httpx provides the single JSON request helper shared by all
// external collaborators (content source, translator, page scraper). It
// owns timeout application, status checking, body decoding, and error
// logging, so client packages stay declarative.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// StatusError is returned when a request completes with a non-2xx status.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("httpx: %s returned %d", e.URL, e.Status)
}

// maxErrBody caps the amount of an error response body kept for diagnostics.
const maxErrBody = 512

// Request describes a single JSON call to an external service.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any           // marshaled to JSON when non-nil
	Timeout time.Duration // applied on top of ctx when > 0
}

// DoJSON executes req with client and decodes the JSON response into out.
// A nil out discards the body. Transport errors and non-2xx statuses are
// logged and returned; a *StatusError allows callers to branch on status.
func DoJSON(ctx context.Context, client *http.Client, req Request, out any) error {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("httpx: marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("httpx: build request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL).Msg("httpx request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		serr := &StatusError{Status: resp.StatusCode, URL: req.URL, Body: string(snippet)}
		log.Error().Int("status", resp.StatusCode).Str("url", req.URL).Msg("httpx non-2xx response")
		return serr
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpx: decode response from %s: %w", req.URL, err)
	}
	return nil
}
