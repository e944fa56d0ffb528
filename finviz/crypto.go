package finviz

import (
	"context"
	"strings"

	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

// selHeaderRow marks the header row of the crypto and screener tables.
const selHeaderRow = `tr[valign="middle"]`

var cryptoTable = scraper.TableSpec{
	Table:      `table:has(tr[valign="middle"]):not(:has(table))`,
	HeaderRow:  selHeaderRow,
	HeaderMode: scraper.HeaderTextNodes,
}

// Crypto returns the performance row of pair (e.g. "BTCUSD"). The first
// column of the table is the pair name. An unknown pair yields KEY_NOT_FOUND.
func (s *Stock) Crypto(ctx context.Context, pair string) (*models.Record, error) {
	page, err := fetchPage(ctx, s.engine, siteURL(s.baseURL, cryptoPath), nil)
	if err != nil {
		return nil, err
	}
	t, err := scraper.ExtractTable(page, cryptoTable)
	if err != nil {
		return nil, err
	}
	if len(t.Headers) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeKeyNotFound, pair, nil)
	}

	key := t.Headers[0]
	for _, rec := range t.Rows {
		if strings.EqualFold(rec.String(key), strings.TrimSpace(pair)) {
			return rec, nil
		}
	}
	return nil, models.NewScrapeError(models.ErrCodeKeyNotFound, pair, nil)
}
