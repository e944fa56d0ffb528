package scraper

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/finscrape/models"
)

// Page is a parsed document plus the URL it was fetched from.
// It is not modified after ParsePage returns.
type Page struct {
	doc *goquery.Document
	url string
}

// ParsePage parses an HTML body.
func ParsePage(body []byte, finalURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeParse, "parse html", err)
	}
	return &Page{doc: doc, url: finalURL}, nil
}

// URL returns the resolved URL the page was fetched from.
func (p *Page) URL() string { return p.url }

// Find returns every node matching the CSS selector, in document order.
// Invalid selectors match nothing.
func (p *Page) Find(selector string) *goquery.Selection {
	m, err := Compile(selector)
	if err != nil {
		return p.doc.FindNodes()
	}
	return p.doc.FindMatcher(m)
}

// FindIn returns the descendants of sel matching the CSS selector.
// Invalid selectors match nothing.
func FindIn(sel *goquery.Selection, selector string) *goquery.Selection {
	m, err := Compile(selector)
	if err != nil {
		return sel.FindNodes()
	}
	return sel.FindMatcher(m)
}

var compiled sync.Map // selector string -> cascadia.Selector

// Compile parses a CSS selector once and reuses it afterwards.
func Compile(selector string) (cascadia.Selector, error) {
	if v, ok := compiled.Load(selector); ok {
		return v.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("scraper: compile selector %q: %w", selector, err)
	}
	compiled.Store(selector, sel)
	return sel, nil
}
