// Package export writes records as CSV files or text tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/finscrape/models"
)

// DefaultFileName is the file SaveCSV writes inside its directory.
const DefaultFileName = "screener_results.csv"

// Headers returns the union of the records' keys in order of first
// appearance.
func Headers(recs []*models.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range recs {
		r.Each(func(k string, _ any) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		})
	}
	return out
}

// WriteCSV writes a header line followed by one line per record. Fields a
// record lacks are written empty. Nil headers use Headers(recs).
func WriteCSV(w io.Writer, headers []string, recs []*models.Record) error {
	if headers == nil {
		headers = Headers(recs)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i, r := range recs {
		if err := cw.Write(cells(headers, r)); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the records to DefaultFileName inside dir and returns the
// file path.
func SaveCSV(dir string, headers []string, recs []*models.Record) (string, error) {
	path := filepath.Join(dir, DefaultFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := WriteCSV(f, headers, recs); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}
	return path, nil
}

// WriteTable renders the records as a bordered text table.
func WriteTable(w io.Writer, headers []string, recs []*models.Record) {
	if headers == nil {
		headers = Headers(recs)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range recs {
		vals := cells(headers, r)
		row := make(table.Row, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

func cells(headers []string, r *models.Record) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		v, ok := r.Get(h)
		if !ok {
			continue
		}
		out[i] = format(v)
	}
	return out
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
