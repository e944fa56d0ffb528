package finviz

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/finscrape/engine"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

// screenerTables maps view names to the site's "v" codes.
var screenerTables = map[string]string{
	"Overview":    "110",
	"Valuation":   "120",
	"Ownership":   "130",
	"Performance": "140",
	"Custom":      "150",
	"Financial":   "160",
	"Technical":   "170",
}

// DefaultTable is the view used when ScreenerQuery.Table is empty.
const DefaultTable = "Overview"

var screenerTable = scraper.TableSpec{
	Table:     `table:has(tr[valign="middle"]):not(:has(table))`,
	HeaderRow: selHeaderRow,
	Rows:      `tr[valign="top"]`,
}

// ScreenerQuery selects screener rows.
type ScreenerQuery struct {
	Tickers []string
	Filters []string

	// Rows caps the number of rows read. 0 reads every row the site reports.
	Rows int

	Order  string
	Signal string

	// Table is the view name, e.g. "Overview" or "Valuation".
	Table string
}

// params encodes q as screener query parameters.
func (q ScreenerQuery) params() (url.Values, error) {
	table := q.Table
	if table == "" {
		table = DefaultTable
	}
	code, ok := screenerTables[table]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "unknown screener table "+table, nil)
	}
	if q.Rows < 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "rows must be >= 0", nil)
	}
	return url.Values{
		"v": {code},
		"t": {strings.Join(q.Tickers, ",")},
		"f": {strings.Join(q.Filters, ",")},
		"o": {q.Order},
		"s": {q.Signal},
	}, nil
}

// ScreenerResult is a completed search.
type ScreenerResult struct {
	// URL is the resolved URL of the first result page.
	URL      string
	Headers  []string
	PageURLs []string
	Records  []*models.Record
}

// ScreenerOptions tunes Screener.
type ScreenerOptions struct {
	// PageSize is the number of rows the site serves per page.
	PageSize int

	// AllowPartial keeps the records of pages that loaded when others
	// failed. The page errors are returned joined with the result.
	AllowPartial bool

	// MaxConcurrency caps in-flight page fetches. 0 fetches all at once.
	MaxConcurrency int
}

// Screener runs paginated screener searches.
type Screener struct {
	client  Client
	baseURL string
	opts    ScreenerOptions
}

// NewScreener creates a Screener. A PageSize <= 0 uses the site's 20.
func NewScreener(client Client, baseURL string, opts ScreenerOptions) *Screener {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &Screener{client: client, baseURL: baseURL, opts: opts}
}

// Search fetches the first result page to learn the headers and the total
// row count, then fetches every planned page concurrently and returns the
// rows in page order.
func (s *Screener) Search(ctx context.Context, q ScreenerQuery) (*ScreenerResult, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	first, err := fetchPage(ctx, s.client, siteURL(s.baseURL, screenerPath), params)
	if err != nil {
		return nil, err
	}
	head, err := scraper.ExtractTable(first, screenerTable)
	if err != nil {
		return nil, err
	}

	rows := q.Rows
	if rows == 0 {
		if total, ok := DiscoverTotalRows(first); ok {
			rows = total
		}
	}

	pageURLs, err := Plan(first.URL(), nil, rows, s.opts.PageSize)
	if err != nil {
		return nil, err
	}

	tasks := make([]engine.Task[[]*models.Record], len(pageURLs))
	for i, u := range pageURLs {
		tasks[i] = engine.Task[[]*models.Record]{URL: u, Transform: screenerRows(rows)}
	}
	results := engine.RunBatch(ctx, s.client, tasks, engine.BatchOptions{MaxConcurrency: s.opts.MaxConcurrency})

	var pages [][]*models.Record
	if s.opts.AllowPartial {
		pages, err = models.Partition(results)
	} else {
		pages, err = models.Values(results)
		if err != nil {
			return nil, err
		}
	}

	res := &ScreenerResult{
		URL:      first.URL(),
		Headers:  head.Headers,
		PageURLs: pageURLs,
		Records:  []*models.Record{},
	}
	for _, p := range pages {
		res.Records = append(res.Records, p...)
	}
	slog.Info("screener search finished",
		"url", res.URL,
		"pages", len(pageURLs),
		"records", len(res.Records),
	)
	return res, err
}

// screenerRows returns the page transform that reads rows up to rank limit.
func screenerRows(limit int) engine.Transform[[]*models.Record] {
	return func(res *engine.FetchResult) ([]*models.Record, error) {
		page, err := scraper.ParsePage(res.Body, res.FinalURL)
		if err != nil {
			return nil, err
		}
		t, err := scraper.ExtractRankedTable(page, screenerTable, limit)
		if err != nil {
			return nil, err
		}
		return t.Rows, nil
	}
}

// Plan returns the URLs of the pages holding totalRows rows, pageSize rows
// per page. Pages differ only by the "r" offset: 1, pageSize+1,
// 2*pageSize+1 and so on. params are merged into baseURL first. An unknown
// total (<= 0) plans a single page.
func Plan(baseURL string, params url.Values, totalRows, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "page size must be > 0", nil)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "base url", err)
	}

	q := u.Query()
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}

	pages := 1
	if totalRows > 0 {
		pages = (totalRows + pageSize - 1) / pageSize
	}

	out := make([]string, pages)
	for i := range pages {
		q.Set("r", strconv.Itoa(i*pageSize+1))
		u.RawQuery = q.Encode()
		out[i] = u.String()
	}
	return out, nil
}

var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*Total`),
	regexp.MustCompile(`Total:\s*(\d+)`),
}

// DiscoverTotalRows reads the total result count advertised on a screener
// page ("#1 / 8345 Total" or "Total: 8345").
func DiscoverTotalRows(p *scraper.Page) (int, bool) {
	text := scraper.TextContent(p.Find(`#screener-total, .count-text`).First())
	text = strings.ReplaceAll(text, ",", "")
	for _, re := range totalPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n, true
			}
		}
	}
	slog.Debug("screener total not found", "url", p.URL())
	return 0, false
}
