package cleaner

import (
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/finscrape/models"
)

const (
	ratingInLayout  = "Jan-2-06"
	ratingOutLayout = "2006-01-02"
)

// Analyst rating record keys.
const (
	RatingDate       = "date"
	RatingCategory   = "category"
	RatingAnalyst    = "analyst"
	RatingRating     = "rating"
	RatingTarget     = "target"
	RatingTargetFrom = "target_from"
	RatingTargetTo   = "target_to"
)

// FormatRatingDate converts "Jan-05-24" to "2024-01-05". Input already in
// "2024-01-05" form is returned unchanged.
func FormatRatingDate(raw string) (string, error) {
	s := CleanText(raw)
	if t, err := time.Parse(ratingOutLayout, s); err == nil {
		return t.Format(ratingOutLayout), nil
	}
	t, err := time.Parse(ratingInLayout, s)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeTimestampParse, raw, err)
	}
	return t.Format(ratingOutLayout), nil
}

// ParseRating builds a rating record from the text nodes of one row:
// date, category, analyst, rating and an optional price target. A missing
// price leaves the target keys absent.
func ParseRating(texts []string) (*models.Record, error) {
	fields := make([]string, 0, len(texts))
	for _, t := range texts {
		t = CleanText(NormalizeArrows(t))
		if t != "" {
			fields = append(fields, t)
		}
	}
	if len(fields) < 4 {
		return nil, models.NewScrapeError(models.ErrCodeParse,
			fmt.Sprintf("rating row has %d fields, want at least 4", len(fields)), nil)
	}

	date, err := FormatRatingDate(fields[0])
	if err != nil {
		return nil, err
	}

	rec := models.NewRecord()
	rec.Set(RatingDate, date)
	rec.Set(RatingCategory, fields[1])
	rec.Set(RatingAnalyst, fields[2])
	rec.Set(RatingRating, fields[3])

	if len(fields) >= 5 {
		if err := ParsePriceTarget(rec, fields[4]); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// ParsePriceTarget adds "target" for a single price or "target_from" and
// "target_to" for a "from -> to" change.
func ParsePriceTarget(rec *models.Record, raw string) error {
	s := strings.ReplaceAll(StripCurrency(NormalizeArrows(raw)), " ", "")
	if from, to, ok := strings.Cut(s, "->"); ok {
		f, err := ParsePrice(from)
		if err != nil {
			return err
		}
		t, err := ParsePrice(to)
		if err != nil {
			return err
		}
		rec.Set(RatingTargetFrom, f)
		rec.Set(RatingTargetTo, t)
		return nil
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	rec.Set(RatingTarget, v)
	return nil
}
