package scraper

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/finscrape/models"
	"golang.org/x/net/html"
)

// HeaderMode selects how header labels are read.
type HeaderMode int

const (
	// HeaderCells uses the text of each header cell.
	HeaderCells HeaderMode = iota
	// HeaderTextNodes uses every non-blank text node of the header row,
	// for tables whose labels are not wrapped one per cell.
	HeaderTextNodes
)

// CellMode selects how a data cell is turned into text.
type CellMode int

const (
	// CellDirect uses the cell's own text, falling back to nested text.
	CellDirect CellMode = iota
	// CellTextContent serialises the whole cell as plain text.
	CellTextContent
)

// TableSpec describes where a table lives and how to read it.
type TableSpec struct {
	// Table is the structural CSS marker of the table. Required.
	Table string

	// HeaderRow selects the header row inside the table. Empty means the
	// table's first row.
	HeaderRow string

	// Rows selects data rows inside the table. Empty means every row after
	// the header row.
	Rows string

	// Cells selects the cells of a row among its descendants. Empty means
	// the row's direct td/th children.
	Cells string

	HeaderMode HeaderMode
	CellMode   CellMode
}

// Table is an extracted table: header labels plus one record per data row.
type Table struct {
	Headers []string
	Rows    []*models.Record
}

// ExtractTable locates the table described by spec and aligns each data row
// with the header labels. Cells beyond the header count (or headers beyond
// the cell count) are dropped. A missing table yields TABLE_NOT_FOUND.
func ExtractTable(p *Page, spec TableSpec) (*Table, error) {
	return extract(p, spec, 0)
}

// ExtractRankedTable is ExtractTable for tables whose first column is an
// integer rank. Extraction stops after the row whose rank equals limit.
// A limit <= 0 reads every row.
func ExtractRankedTable(p *Page, spec TableSpec, limit int) (*Table, error) {
	return extract(p, spec, limit)
}

func extract(p *Page, spec TableSpec, rankLimit int) (*Table, error) {
	table := p.Find(spec.Table).First()
	if table.Length() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeTableNotFound, spec.Table, nil)
	}

	header, rows := splitRows(table, spec)
	if header == nil {
		return &Table{}, nil
	}

	t := &Table{Headers: readHeaders(header, spec)}

	for _, row := range rows {
		values := readCells(row, spec)
		if blank(values) {
			continue
		}
		if len(values) != len(t.Headers) {
			slog.Debug("scraper: row/header length mismatch",
				"table", spec.Table,
				"headers", len(t.Headers),
				"cells", len(values),
			)
		}
		t.Rows = append(t.Rows, models.RecordFromPairs(t.Headers, values))

		if rankLimit > 0 {
			if rank, err := strconv.Atoi(strings.TrimSpace(values[0])); err == nil && rank == rankLimit {
				break
			}
		}
	}
	return t, nil
}

// splitRows returns the header row and the data rows of table.
func splitRows(table *goquery.Selection, spec TableSpec) (*goquery.Selection, []*goquery.Selection) {
	var header *goquery.Selection
	if spec.HeaderRow != "" {
		if m, err := Compile(spec.HeaderRow); err == nil {
			if h := table.FindMatcher(m).First(); h.Length() > 0 {
				header = h
			}
		}
	}

	var rows []*goquery.Selection
	if spec.Rows != "" {
		if m, err := Compile(spec.Rows); err == nil {
			table.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
				if header != nil && s.Get(0) == header.Get(0) {
					return
				}
				rows = append(rows, s)
			})
		}
	} else {
		for _, n := range directRows(table.Get(0)) {
			if header != nil && n == header.Get(0) {
				continue
			}
			rows = append(rows, table.FindNodes(n))
		}
	}

	if header == nil {
		if len(rows) == 0 {
			return nil, nil
		}
		header, rows = rows[0], rows[1:]
	}
	return header, rows
}

// Rows returns the rows that belong to the first table in sel itself,
// skipping rows of nested tables.
func Rows(sel *goquery.Selection) *goquery.Selection {
	if sel.Length() == 0 {
		return sel.FindNodes()
	}
	return sel.FindNodes(directRows(sel.Get(0))...)
}

// directRows returns the rows that belong to table itself, skipping rows
// of nested tables.
func directRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "tr":
			rows = append(rows, c)
		case "thead", "tbody", "tfoot":
			for r := c.FirstChild; r != nil; r = r.NextSibling {
				if r.Type == html.ElementNode && r.Data == "tr" {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

func cellsOf(row *goquery.Selection, spec TableSpec) *goquery.Selection {
	if spec.Cells != "" {
		if m, err := Compile(spec.Cells); err == nil {
			return row.FindMatcher(m)
		}
	}
	return row.ChildrenFiltered("td, th")
}

func readHeaders(row *goquery.Selection, spec TableSpec) []string {
	cells := cellsOf(row, spec)
	if spec.HeaderMode == HeaderTextNodes {
		return TextNodes(cells)
	}
	headers := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		headers = append(headers, CellText(c))
	})
	return headers
}

func readCells(row *goquery.Selection, spec TableSpec) []string {
	cells := cellsOf(row, spec)
	values := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		if spec.CellMode == CellTextContent {
			values = append(values, TextContent(c))
			return
		}
		values = append(values, CellText(c))
	})
	return values
}

func blank(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
