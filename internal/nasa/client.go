// Package nasa implements the client for the picture-of-the-day feed.
//
// The feed is queried either by calendar date or with count=1 for a random
// pull. Responses come back as a single object or a single-element array
// depending on the query; both shapes are normalized to one Item. Vendor
// bookkeeping fields (copyright, service_version) are dropped at the
// decoding boundary and never reach the persistence layer.
package nasa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/domain"
	"github.com/avolkov/apod-bot/internal/httpx"
)

// Item is one normalized feed entry.
type Item struct {
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Explanation string  `json:"explanation"`
	URL         string  `json:"url"`
	HDURL       *string `json:"hdurl,omitempty"`
	MediaType   string  `json:"media_type"`
}

// Kind returns the item's media type as a closed domain enum.
func (i Item) Kind() domain.MediaType { return domain.ParseMediaType(i.MediaType) }

// ErrEmptyResponse is returned when the feed answers with an empty list.
var ErrEmptyResponse = errors.New("nasa: feed returned no items")

// Client talks to the picture-of-the-day feed.
type Client struct {
	cfg     config.NASAConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a feed client. Requests are paced client-side with a
// token bucket because the feed enforces hourly quotas per API key.
func NewClient(cfg config.NASAConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

// Fetch retrieves one feed entry. When random is true the date is ignored
// and the feed picks an arbitrary entry (count=1); otherwise date selects a
// specific day, with an empty date meaning "today" server-side.
func (c *Client) Fetch(ctx context.Context, date string, random bool) (*Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	switch {
	case date != "":
		q.Set("date", date)
	case random:
		q.Set("count", "1")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/planetary/apod?" + q.Encode()

	var raw json.RawMessage
	err := httpx.DoJSON(ctx, c.http, httpx.Request{
		Method:  http.MethodGet,
		URL:     endpoint,
		Timeout: c.cfg.Timeout,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return normalize(raw)
}

// normalize folds the feed's object-or-array response shape into one item.
func normalize(raw json.RawMessage) (*Item, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("nasa: decode list response: %w", err)
		}
		if len(items) == 0 {
			return nil, ErrEmptyResponse
		}
		return &items[0], nil
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("nasa: decode response: %w", err)
	}
	return &item, nil
}

// PageURL returns the HTML archive page for a given ISO date, e.g.
// 2025-05-05 -> {base}/ap250505.html. The archive is scraped as a fallback
// when the feed reports a media type it cannot link directly.
func (c *Client) PageURL(date string) string {
	compact := strings.ReplaceAll(date, "-", "")
	if len(compact) > 2 {
		compact = compact[2:] // two-digit year
	}
	return strings.TrimRight(c.cfg.PageBaseURL, "/") + "/ap" + compact + ".html"
}
