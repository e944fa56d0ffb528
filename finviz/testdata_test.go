package finviz

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/engine"
)

const quoteHTML = `<html><body>
<div class="fv-container py-2.5">
  <h1 class="js-recent-quote-ticker quote-header_ticker-wrapper_ticker">AAPL</h1>
  <h2 class="quote-header_ticker-wrapper_company text-xl"><a class="tab-link block truncate" href="https://www.apple.com">Apple Inc</a></h2>
  <div>
    <a class="tab-link" href="/screener.ashx?f=sec_technology">Technology</a> |
    <a class="tab-link" href="/screener.ashx?f=ind_consumerelectronics">Consumer Electronics</a> |
    <a class="tab-link" href="/screener.ashx?f=geo_usa">USA</a> |
    <a class="tab-link" href="/screener.ashx?f=exch_nasd">NASD</a>
  </div>
</div>
<table class="snapshot-table2">
  <tr class="table-dark-row"><td>Index</td><td><b>DJIA, S&amp;P 500</b></td><td>EPS next Y</td><td><b>6.58</b></td></tr>
  <tr class="table-dark-row"><td>EPS next Y</td><td><b><span>8.12%</span></b></td><td>Volatility</td><td><b>1.20% 1.45%</b></td></tr>
  <tr class="table-dark-row"><td><a>Trades</a></td><td>Shs Outstand</td><td><b>15.20B</b></td></tr>
</table>
<table class="body-table insider-trading-table">
  <tr><td>Insider Trading</td><td>Relationship</td><td>Date</td><td>Transaction</td></tr>
  <tr><td><a>COOK TIMOTHY D</a></td><td>Chief Executive Officer</td><td>Oct 02 '24</td><td><b>Sale</b></td></tr>
  <tr><td>ADAMS KATHERINE</td><td>General Counsel</td><td>Oct 01 '24</td><td>Option Exercise</td></tr>
</table>
<table id="news-table">
  <tr><td>Jan-05-24 09:30AM&nbsp;&nbsp;</td><td><div><a class="tab-link-news" href="https://news.example.com/h1">Headline one</a></div><div class="news-link-right"><span>(Reuters)</span></div></td></tr>
  <tr id="sponsored"><td>ad</td><td>ad</td></tr>
  <tr><td>10:15AM&nbsp;&nbsp;</td><td><a class="tab-link-news" href="/news/h2">Headline two</a><div class="news-link-right"><span>(Motley Fool)</span></div></td></tr>
</table>
<table class="js-table-ratings fullview-ratings-outer">
  <tr><td>Jan-05-24</td><td>Upgrade</td><td>Goldman</td><td>Neutral → Buy</td><td>$150.00 → $165.00</td></tr>
  <tr><td>someday</td><td>Initiated</td><td>Nobody</td><td>Buy</td></tr>
  <tr><td>Dec-12-23</td><td>Reiterated</td><td>UBS</td><td>Buy</td><td>$200.00</td></tr>
  <tr><td>Dec-01-23</td><td>Initiated</td><td>Jefferies</td><td>Hold</td></tr>
</table>
</body></html>`

const emptyQuoteHTML = `<html><body>
<div class="fv-container py-2.5">
  <h1 class="js-recent-quote-ticker quote-header_ticker-wrapper_ticker">NEWCO</h1>
  <h2 class="quote-header_ticker-wrapper_company">NewCo Holdings</h2>
</div>
</body></html>`

const cryptoHTML = `<html><body><table><tr><td>
<table>
  <tr valign="middle"><td>Ticker</td><td>Price</td><td>Perf Day</td></tr>
  <tr valign="top"><td><a>BTCUSD</a></td><td>43000.00</td><td>1.20%</td></tr>
  <tr valign="top"><td><a>ETHUSD</a></td><td>2300.00</td><td>-0.50%</td></tr>
</table>
</td></tr></table></body></html>`

const siteNewsHTML = `<html><body><table>
  <tr><td class="nn-date">09:30AM</td><td><a class="nn-tab-link" href="https://a.example.com/1">First story</a></td></tr>
  <tr><td class="nn-date">Jan-04</td><td><a class="nn-tab-link" href="/2">Second story</a></td></tr>
</table></body></html>`

// screenerHTML renders ranks [from, min(from+pageSize-1, total)] of a
// result set of total rows.
func screenerHTML(from, pageSize, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div id="screener-total">#%d / %d Total</div>`, from, total)
	b.WriteString(`<table><tr><td><table>`)
	b.WriteString(`<tr valign="middle"><td>No.</td><td>Ticker</td><td><img src="p.gif" alt="Price"></td></tr>`)
	for rank := from; rank < from+pageSize && rank <= total; rank++ {
		fmt.Fprintf(&b, `<tr valign="top"><td><a>%d</a></td><td><a>T%d</a></td><td><a><span>%d.50</span></a></td></tr>`, rank, rank, rank)
	}
	b.WriteString(`</table></td></tr></table></body></html>`)
	return b.String()
}

// site is a fake finviz server counting hits per path.
type site struct {
	srv  *httptest.Server
	hits map[string]*atomic.Int32

	// failOffset makes the screener page at this "r" offset answer 500.
	failOffset string
	total      int
}

func newSite(t *testing.T) *site {
	t.Helper()
	return newFailingSite(t, "")
}

// newFailingSite is newSite with the screener page at failOffset broken.
func newFailingSite(t *testing.T, failOffset string) *site {
	t.Helper()
	s := &site{
		failOffset: failOffset,
		hits: map[string]*atomic.Int32{
			quotePath:    {},
			newsPath:     {},
			cryptoPath:   {},
			screenerPath: {},
		},
		total: 45,
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := s.hits[r.URL.Path]; ok {
			c.Add(1)
		}
		q := r.URL.Query()
		switch r.URL.Path {
		case quotePath:
			if q.Get("t") == "AAPL" {
				fmt.Fprint(w, quoteHTML)
				return
			}
			fmt.Fprint(w, emptyQuoteHTML)
		case newsPath:
			fmt.Fprint(w, siteNewsHTML)
		case cryptoPath:
			fmt.Fprint(w, cryptoHTML)
		case screenerPath:
			offset := q.Get("r")
			if offset == "" {
				offset = "1"
			}
			if offset == s.failOffset {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			from, _ := strconv.Atoi(offset)
			fmt.Fprint(w, screenerHTML(from, 20, s.total))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *site) engine(t *testing.T) *engine.HTTPEngine {
	t.Helper()
	e := engine.NewHTTPEngine(config.FetchConfig{
		Timeout:              5 * time.Second,
		MaxRetries:           0,
		RetryInitialInterval: time.Millisecond,
	})
	t.Cleanup(e.Close)
	return e
}

func (s *site) stock(t *testing.T) *Stock {
	t.Helper()
	c := cache.New(16, 0)
	t.Cleanup(c.Stop)
	return NewStock(s.engine(t), c, s.srv.URL)
}
