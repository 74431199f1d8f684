// Package translate implements the batch text translation client.
//
// The API contract is order-preserving: the response carries exactly one
// translation per input text, in input order. The orchestrator relies on
// that positional contract to pair [title, explanation] with their
// translations, so a length mismatch is a hard error here, never silently
// truncated.
package translate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avolkov/apod-bot/internal/config"
	"github.com/avolkov/apod-bot/internal/httpx"
)

// Client calls the translation API.
type Client struct {
	cfg  config.TranslateConfig
	http *http.Client
}

// NewClient builds a translator client.
func NewClient(cfg config.TranslateConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

type translateRequest struct {
	FolderID           string   `json:"folderId"`
	Texts              []string `json:"texts"`
	SourceLanguageCode string   `json:"sourceLanguageCode"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate translates texts from English to Russian in a single batched
// call and returns the results in input order. The returned slice always
// has len(texts) elements on success.
func (c *Client) Translate(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp translateResponse
	err := httpx.DoJSON(ctx, c.http, httpx.Request{
		Method: http.MethodPost,
		URL:    c.cfg.URL,
		Headers: map[string]string{
			"Authorization": "Api-Key " + c.cfg.APIKey,
		},
		Body: translateRequest{
			FolderID:           c.cfg.FolderID,
			Texts:              texts,
			SourceLanguageCode: "en",
			TargetLanguageCode: "ru",
		},
		Timeout: c.cfg.Timeout,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Translations) != len(texts) {
		return nil, fmt.Errorf("translate: got %d translations for %d texts", len(resp.Translations), len(texts))
	}
	out := make([]string, len(resp.Translations))
	for i, tr := range resp.Translations {
		out[i] = tr.Text
	}
	return out, nil
}
