// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package catalog implements the Aladin book search client used to
// enrich recommendations with cover images and detail links. Lookups
// are best effort: a miss or upstream failure yields a fallback search
// link rather than an error surfaced to the user.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/metrics"
)

// ErrNotFound is returned when the catalog has no item matching the
// title and author.
var ErrNotFound = errors.New("catalog: no matching item")

// searchLinkBase is where fallback links point when the catalog has no
// direct item page.
const searchLinkBase = "https://www.aladin.co.kr/search/wsearchresult.aspx"

// Client queries the Aladin ItemSearch API. All requests pass through
// a token-bucket limiter to honor the upstream quota.
type Client struct {
	baseURL    string
	ttbKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient builds a rate-limited catalog client from configuration.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ttbKey:  cfg.TTBKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logging.With().Str("component", "catalog").Logger(),
	}
}

type searchResponse struct {
	TotalResults int `json:"totalResults"`
	Item         []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
		Cover string `json:"cover"`
	} `json:"item"`
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Lookup searches the catalog for "title author" and returns the cover
// image URL and item link of the first hit. On a miss it returns
// ErrNotFound together with a usable fallback search link.
func (c *Client) Lookup(ctx context.Context, title, author string) (coverURL, link string, err error) {
	start := time.Now()
	coverURL, link, err = c.lookup(ctx, title, author)
	metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.EnrichmentCallsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.EnrichmentCallsTotal.WithLabelValues("miss").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		metrics.EnrichmentCallsTotal.WithLabelValues("timeout").Inc()
	default:
		metrics.EnrichmentCallsTotal.WithLabelValues("error").Inc()
	}
	return coverURL, link, err
}

func (c *Client) lookup(ctx context.Context, title, author string) (string, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("ttbkey", c.ttbKey)
	q.Set("Query", strings.TrimSpace(title+" "+author))
	q.Set("QueryType", "Keyword")
	q.Set("MaxResults", "1")
	q.Set("SearchTarget", "Book")
	q.Set("output", "js")
	q.Set("Version", "20131101")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/ItemSearch.aspx?"+q.Encode(), nil)
	if err != nil {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: reading response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: decoding response: %w", err)
	}
	if parsed.ErrorCode != 0 {
		return "", FallbackLink(title, author), fmt.Errorf("catalog: upstream error %d: %s", parsed.ErrorCode, parsed.ErrorMessage)
	}
	if len(parsed.Item) == 0 {
		return "", FallbackLink(title, author), ErrNotFound
	}

	item := parsed.Item[0]
	link := upgradeScheme(item.Link)
	if link == "" {
		link = FallbackLink(title, author)
	}
	return NormalizeCoverURL(item.Cover), link, nil
}

// NormalizeCoverURL upgrades the scheme to https and swaps the
// thumbnail suffix for the 500px rendition the API does not return
// directly. ssum.jpg is checked before sum.jpg because the former
// contains the latter.
func NormalizeCoverURL(cover string) string {
	cover = upgradeScheme(cover)
	cover = strings.Replace(cover, "ssum.jpg", "cover500.jpg", 1)
	cover = strings.Replace(cover, "sum.jpg", "cover500.jpg", 1)
	return cover
}

// Enrich is the lenient variant the recommendation engine consumes: a
// catalog miss is not an error, it yields an empty cover with the
// fallback search link.
func (c *Client) Enrich(ctx context.Context, title, author string) (coverURL, link string, err error) {
	coverURL, link, err = c.Lookup(ctx, title, author)
	if errors.Is(err, ErrNotFound) {
		return "", link, nil
	}
	return coverURL, link, err
}

// FallbackLink builds a search results URL for when no item page is
// known.
func FallbackLink(title, author string) string {
	q := url.Values{}
	q.Set("SearchWord", strings.TrimSpace(title+" "+author))
	return searchLinkBase + "?" + q.Encode()
}

func upgradeScheme(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
