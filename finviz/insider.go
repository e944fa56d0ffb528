package finviz

import (
	"context"
	"errors"

	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

var insiderTable = scraper.TableSpec{
	Table:      `table[class="body-table insider-trading-table"]`,
	HeaderMode: scraper.HeaderTextNodes,
	CellMode:   scraper.CellTextContent,
}

// Insider returns ticker's recent insider transactions keyed by the table's
// header labels. A ticker without an insider table yields an empty slice.
func (s *Stock) Insider(ctx context.Context, ticker string) ([]*models.Record, error) {
	page, err := s.quotePage(ctx, ticker)
	if err != nil {
		return nil, err
	}
	t, err := scraper.ExtractTable(page, insiderTable)
	if errors.Is(err, models.ErrTableNotFound) {
		return []*models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Rows == nil {
		return []*models.Record{}, nil
	}
	return t.Rows, nil
}
