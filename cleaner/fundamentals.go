package cleaner

import (
	"strings"

	"github.com/use-agent/finscrape/models"
)

const (
	keyEPSNextY       = "EPS next Y"
	keyEPSGrowthNextY = "EPS growth next Y"
	keyVolatility     = "Volatility"
	keyVolatilityWeek = "Volatility (Week)"
	keyVolatilityMon  = "Volatility (Month)"
)

// ignoredFundamentalTexts are link labels interleaved with the metric cells.
var ignoredFundamentalTexts = map[string]bool{
	"Trades": true,
}

// AddFundamentalPairs reads texts two at a time as (label, value) and adds
// each pair with AddFundamental. A trailing unpaired label is dropped.
func AddFundamentalPairs(rec *models.Record, texts []string) {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		t = CleanText(t)
		if t == "" || ignoredFundamentalTexts[t] {
			continue
		}
		kept = append(kept, t)
	}
	for i := 0; i+1 < len(kept); i += 2 {
		AddFundamental(rec, kept[i], kept[i+1])
	}
}

// AddFundamental stores one metric, applying the site's label quirks:
//   - the page lists "EPS next Y" twice; the second one is the growth rate
//   - "Volatility" holds "week month" and is split into two fields
func AddFundamental(rec *models.Record, key, value string) {
	switch {
	case key == keyEPSNextY && rec.Has(keyEPSNextY):
		rec.Set(keyEPSGrowthNextY, value)
	case key == keyVolatility:
		if parts := strings.Fields(value); len(parts) == 2 {
			rec.Set(keyVolatilityWeek, parts[0])
			rec.Set(keyVolatilityMon, parts[1])
			return
		}
		rec.Set(key, value)
	default:
		rec.Set(key, value)
	}
}
