package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoEmbeddedSource is returned when an archive page carries no usable
// <source> element.
var ErrNoEmbeddedSource = errors.New("media: no embedded source found")

// Source is the media reference recovered from an archive HTML page.
type Source struct {
	URL  string // direct media URL from the <source> src attribute
	Kind string // major MIME type ("video" from "video/mp4")
}

// PageScraper recovers the real media URL and type from an APOD archive
// page when the feed reports the entry as neither image nor video.
type PageScraper struct {
	http *http.Client
}

// NewPageScraper builds a scraper over the given HTTP client.
func NewPageScraper(httpClient *http.Client) *PageScraper {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PageScraper{http: httpClient}
}

// Scrape fetches pageURL and extracts the first <source> tag's src and
// major media type. ErrNoEmbeddedSource is returned when the page has no
// usable embed.
func (s *PageScraper) Scrape(ctx context.Context, pageURL string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media: archive page %s returned %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	src, ok := doc.Find("source").First().Attr("src")
	if !ok || src == "" {
		return nil, ErrNoEmbeddedSource
	}

	mediaType, _ := doc.Find("source").First().Attr("type")
	kind, _, _ := strings.Cut(mediaType, "/")
	if kind == "" {
		return nil, ErrNoEmbeddedSource
	}

	return &Source{URL: src, Kind: kind}, nil
}
