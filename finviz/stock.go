package finviz

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/engine"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

// Stock reads per-ticker pages. Quote pages are memoized in the injected
// cache, so fundamentals, insider, news and ratings for one ticker share a
// single fetch.
type Stock struct {
	engine  engine.Engine
	pages   *cache.Cache
	baseURL string

	// now anchors "Today" news rows. Defaults to time.Now.
	now func() time.Time
}

// NewStock creates a Stock. A nil cache disables memoization.
func NewStock(e engine.Engine, pages *cache.Cache, baseURL string) *Stock {
	return &Stock{
		engine:  e,
		pages:   pages,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// quotePage returns the parsed quote page for ticker, fetching it on the
// first request only.
func (s *Stock) quotePage(ctx context.Context, ticker string) (*scraper.Page, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "ticker is required", nil)
	}

	load := func() (*scraper.Page, error) {
		slog.Debug("fetching quote page", "ticker", ticker)
		return fetchPage(ctx, s.engine, siteURL(s.baseURL, quotePath), url.Values{"t": {ticker}})
	}
	if s.pages == nil {
		return load()
	}
	return s.pages.GetOrLoad(ticker, load)
}
