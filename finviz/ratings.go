package finviz

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/finscrape/cleaner"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

const selRatingsTable = `table[class="js-table-ratings fullview-ratings-outer"]`

// AnalystRatingRows parses every row of ticker's analyst ratings table,
// newest first, keeping one result per row so malformed rows can be told
// apart from good ones. A ticker without a ratings table yields no rows.
func (s *Stock) AnalystRatingRows(ctx context.Context, ticker string) ([]models.Result[*models.Record], error) {
	page, err := s.quotePage(ctx, ticker)
	if err != nil {
		return nil, err
	}

	table := page.Find(selRatingsTable).First()
	if table.Length() == 0 {
		return nil, nil
	}

	var rows []models.Result[*models.Record]
	scraper.Rows(table).Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		rec, err := cleaner.ParseRating(scraper.TextNodes(cells))
		if err != nil {
			rows = append(rows, models.Err[*models.Record](fmt.Errorf("finviz: rating row %d: %w", i, err)))
			return
		}
		rows = append(rows, models.Ok(rec))
	})
	return rows, nil
}

// AnalystRatings returns the last most recent well-formed ratings for
// ticker (all of them when last <= 0). Malformed rows met before the cap is
// reached are skipped and reported as a joined error next to the records.
func (s *Stock) AnalystRatings(ctx context.Context, ticker string, last int) ([]*models.Record, error) {
	rows, err := s.AnalystRatingRows(ctx, ticker)
	if err != nil {
		return nil, err
	}

	out := []*models.Record{}
	var errs []error
	for _, r := range rows {
		if last > 0 && len(out) == last {
			break
		}
		if r.Failed() {
			errs = append(errs, r.Err)
			continue
		}
		out = append(out, r.Value)
	}
	return out, errors.Join(errs...)
}
