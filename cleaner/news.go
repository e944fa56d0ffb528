package cleaner

import (
	"strings"
	"time"

	"github.com/use-agent/finscrape/models"
)

const (
	newsLongLayout  = "Jan-2-06 3:04PM"
	newsShortLayout = "3:04PM"
	newsOutLayout   = "2006-01-02 15:04"
	todayPrefix     = "TODAY "
)

type anchorState int

const (
	needAnchorDate anchorState = iota
	haveAnchorDate
)

// Timestamper rebuilds absolute timestamps for a news table. Only the first
// row of each day carries a date; later rows of that day carry a time only
// and inherit the most recent date seen.
type Timestamper struct {
	state  anchorState
	anchor time.Time
	now    func() time.Time
}

// NewTimestamper returns a Timestamper that resolves "Today" against now.
// A nil now uses time.Now.
func NewTimestamper(now func() time.Time) *Timestamper {
	if now == nil {
		now = time.Now
	}
	return &Timestamper{now: now}
}

// Next converts one raw cell ("Jan-05-24 09:30AM", "10:15AM" or
// "Today 09:30AM") to "YYYY-MM-DD HH:MM".
func (ts *Timestamper) Next(raw string) (string, error) {
	s := strings.ToUpper(CleanText(raw))

	if rest, ok := strings.CutPrefix(s, todayPrefix); ok {
		t, err := time.Parse(newsShortLayout, rest)
		if err != nil {
			return "", models.NewScrapeError(models.ErrCodeTimestampParse, raw, err)
		}
		now := ts.now()
		ts.setAnchor(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
		return ts.combine(t), nil
	}

	if t, err := time.Parse(newsLongLayout, s); err == nil {
		ts.setAnchor(t)
		return t.Format(newsOutLayout), nil
	}

	t, err := time.Parse(newsShortLayout, s)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeTimestampParse, raw, err)
	}
	if ts.state == needAnchorDate {
		return "", models.NewScrapeError(models.ErrCodeMissingAnchorDate, raw, nil)
	}
	return ts.combine(t), nil
}

func (ts *Timestamper) setAnchor(t time.Time) {
	ts.anchor = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	ts.state = haveAnchorDate
}

func (ts *Timestamper) combine(clock time.Time) string {
	return ts.anchor.Add(time.Duration(clock.Hour())*time.Hour +
		time.Duration(clock.Minute())*time.Minute).Format(newsOutLayout)
}
