package finviz

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/finscrape/cleaner"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

const (
	selNewsTable  = `table[id="news-table"]`
	selNewsLink   = `a[class="tab-link-news"]`
	selNewsSource = `div[class="news-link-right"] span`
	selNNDate     = `td[class="nn-date"]`
	selNNLink     = `a[class="nn-tab-link"]`
)

// News returns ticker's headlines newest first with absolute timestamps.
// A ticker without a news table yields an empty slice. On a timestamp
// error the items parsed so far are returned with the error.
func (s *Stock) News(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	page, err := s.quotePage(ctx, ticker)
	if err != nil {
		return nil, err
	}

	table := page.Find(selNewsTable).First()
	if table.Length() == 0 {
		return []models.NewsItem{}, nil
	}

	ts := cleaner.NewTimestamper(s.now)
	items := []models.NewsItem{}
	var rowErr error

	scraper.Rows(table).Not("[id]").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.ChildrenFiltered("td")
		link := scraper.FindIn(cells.Eq(1), selNewsLink).First()
		if cells.Length() < 2 || link.Length() == 0 {
			slog.Debug("skipping news row without headline", "ticker", ticker)
			return true
		}

		stamp, err := ts.Next(scraper.DirectText(cells.Eq(0)))
		if err != nil {
			rowErr = err
			return false
		}

		href, _ := link.Attr("href")
		items = append(items, models.NewsItem{
			Timestamp: stamp,
			Headline:  scraper.TextContent(link),
			URL:       resolveLink(page.URL(), href),
			Source:    strings.Trim(scraper.TextContent(scraper.FindIn(cells.Eq(1), selNewsSource).First()), "() "),
		})
		return true
	})
	return items, rowErr
}

// AllNews returns the site-wide news list as (date, headline, url).
func (s *Stock) AllNews(ctx context.Context) ([]models.SiteNews, error) {
	page, err := fetchPage(ctx, s.engine, siteURL(s.baseURL, newsPath), nil)
	if err != nil {
		return nil, err
	}

	dates := page.Find(selNNDate)
	links := page.Find(selNNLink)
	n := min(dates.Length(), links.Length())

	out := make([]models.SiteNews, 0, n)
	for i := range n {
		a := links.Eq(i)
		href, _ := a.Attr("href")
		out = append(out, models.SiteNews{
			Date:     cleaner.CleanText(scraper.TextContent(dates.Eq(i))),
			Headline: cleaner.CleanText(scraper.TextContent(a)),
			URL:      resolveLink(page.URL(), href),
		})
	}
	return out, nil
}
