package listing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// providerUnknown is emitted when no column yields a plausible provider name.
const providerUnknown = "source unknown"

var (
	numericExpr  = regexp.MustCompile(`^[\d,.\s]+$`)
	dateLikeExpr = regexp.MustCompile(`^\d{2,4}[.\-/]\d{1,2}[.\-/]\d{1,2}$`)
)

// probeProvider picks the provider name from candidate columns in priority
// order. The table's column layout is not fixed, so this is a heuristic: the
// first non-empty value that is not purely numeric or date-like wins.
func probeProvider(cols *goquery.Selection, candidates []int) string {
	for _, idx := range candidates {
		if idx >= cols.Length() {
			continue
		}
		value := strings.TrimSpace(cols.Eq(idx).Text())
		if value == "" {
			continue
		}
		if numericExpr.MatchString(value) || dateLikeExpr.MatchString(value) {
			continue
		}
		return value
	}
	return providerUnknown
}
