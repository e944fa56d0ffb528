package finviz

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/finscrape/cleaner"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

const (
	selQuoteHeader     = `div[class="fv-container py-2.5"]`
	selTicker          = `h1[class="js-recent-quote-ticker quote-header_ticker-wrapper_ticker"]`
	selCompany         = `h2[class="quote-header_ticker-wrapper_company text-xl"]`
	selCompanyFallback = `h2[class="quote-header_ticker-wrapper_company"]`
	selWebsite         = `a[class="tab-link block truncate"]`
	selProfileLink     = `a[class="tab-link"]`
	selSnapshotRow     = `tr[class="table-dark-row"]`
)

// Identity keys of a fundamentals record, in output order.
const (
	KeyTicker   = "Ticker"
	KeyCompany  = "Company"
	KeySector   = "Sector"
	KeyIndustry = "Industry"
	KeyCountry  = "Country"
	KeyExchange = "Exchange"
	KeyWebsite  = "Website"
)

// profileKeys label the header's profile links, in page order.
var profileKeys = []string{KeySector, KeyIndustry, KeyCountry, KeyExchange}

// Fundamentals returns the identity fields and every snapshot metric of
// ticker's quote page.
func (s *Stock) Fundamentals(ctx context.Context, ticker string) (*models.Record, error) {
	page, err := s.quotePage(ctx, ticker)
	if err != nil {
		return nil, err
	}

	header := page.Find(selQuoteHeader).First()
	if header.Length() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeTableNotFound, selQuoteHeader, nil)
	}

	rec := models.NewRecord()
	rec.Set(KeyTicker, scraper.TextContent(scraper.FindIn(header, selTicker).First()))

	company := scraper.FindIn(header, selCompany).First()
	if company.Length() == 0 {
		company = scraper.FindIn(header, selCompanyFallback).First()
	}
	rec.Set(KeyCompany, scraper.TextContent(company))

	for _, k := range profileKeys {
		rec.Set(k, "")
	}
	scraper.FindIn(header, selProfileLink).EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= len(profileKeys) {
			return false
		}
		rec.Set(profileKeys[i], scraper.TextContent(a))
		return true
	})

	if href, ok := scraper.FindIn(company, selWebsite).First().Attr("href"); ok && isAbsoluteHTTP(href) {
		rec.Set(KeyWebsite, href)
	}

	page.Find(selSnapshotRow).Each(func(_ int, tr *goquery.Selection) {
		cleaner.AddFundamentalPairs(rec, scraper.TextNodes(tr.ChildrenFiltered("td")))
	})
	return rec, nil
}

func isAbsoluteHTTP(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}
