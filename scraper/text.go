package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DirectText returns the concatenated text nodes that are direct children of
// the first node in sel, untrimmed.
func DirectText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// TextNodes returns every non-blank descendant text node of sel, trimmed,
// in document order.
func TextNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// TextContent returns all text under sel with markup stripped, trimmed.
func TextContent(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// CellText returns the trimmed direct text of a cell, falling back to the
// text of nested elements (e.g. a value wrapped in a span) and finally to an
// image's alt or title when the cell holds only an icon.
func CellText(sel *goquery.Selection) string {
	if t := strings.TrimSpace(DirectText(sel)); t != "" {
		return t
	}
	if t := TextContent(sel); t != "" {
		return t
	}
	img := sel.Find("img").First()
	if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return strings.TrimSpace(alt)
	}
	if title, ok := img.Attr("title"); ok {
		return strings.TrimSpace(title)
	}
	return ""
}
