// Package finviz reads quote, news, ratings, crypto and screener pages of
// the finviz site into records.
package finviz

import (
	"context"
	"net/url"
	"strings"

	"github.com/use-agent/finscrape/engine"
	"github.com/use-agent/finscrape/scraper"
)

// Page paths relative to the site root.
const (
	quotePath    = "/quote.ashx"
	newsPath     = "/news.ashx"
	cryptoPath   = "/crypto_performance.ashx"
	screenerPath = "/screener.ashx"
)

// Client is the transport the site client needs: single fetches plus fresh
// sessions for concurrent batches. *engine.HTTPEngine satisfies it.
type Client interface {
	engine.Engine
	engine.SessionFactory
}

// fetchPage performs one GET through e and parses the body.
func fetchPage(ctx context.Context, e engine.Engine, rawURL string, params url.Values) (*scraper.Page, error) {
	res, err := e.Fetch(ctx, &engine.FetchRequest{URL: rawURL, Params: params})
	if err != nil {
		return nil, err
	}
	return scraper.ParsePage(res.Body, res.FinalURL)
}

// resolveLink makes href absolute against the page it was found on.
// Unparseable links are returned as-is.
func resolveLink(pageURL, href string) string {
	href = strings.TrimSpace(href)
	base, err := url.Parse(pageURL)
	if err != nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func siteURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
