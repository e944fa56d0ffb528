package cleaner

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/use-agent/finscrape/models"
)

// arrowReplacer maps every arrow spelling seen on the site, including the
// UTF-8 arrow mis-decoded as Windows-1252, to a plain "->".
var arrowReplacer = strings.NewReplacer(
	"â†’", "->",
	"→", "->",
	"⟶", "->",
)

var currencyReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
)

// CleanText trims s and collapses internal whitespace (including
// non-breaking spaces) to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeArrows rewrites arrow glyphs to "->".
func NormalizeArrows(s string) string {
	return arrowReplacer.Replace(s)
}

// StripCurrency removes currency symbols.
func StripCurrency(s string) string {
	return currencyReplacer.Replace(s)
}

// ParsePrice parses a price such as "$1,250.50" into a float.
func ParsePrice(s string) (float64, error) {
	raw := strings.ReplaceAll(StripCurrency(CleanText(s)), ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, models.NewScrapeError(models.ErrCodeParse, "price "+s, err)
	}
	return d.InexactFloat64(), nil
}
