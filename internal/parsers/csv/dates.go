package csv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// months maps the abbreviations Barclays uses in "DD Mon YYYY" dates
var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// NormalizeDate converts bank-specific date text into ISO YYYY-MM-DD for
// the given format. Unparseable input is returned unchanged; downstream
// consumers parse dates leniently and tolerate non-ISO strings.
func NormalizeDate(raw string, format domain.SourceFormat) string {
	switch format {
	case domain.FormatBarclays:
		return barclaysDate(raw)
	case domain.FormatHSBC:
		return hsbcDate(raw)
	default:
		return raw
	}
}

// barclaysDate parses "DD Mon YYYY" (e.g. "3 Feb 2026") into YYYY-MM-DD
func barclaysDate(raw string) string {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) != 3 {
		return raw
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return raw
	}

	month, ok := months[strings.ToLower(parts[1])]
	if !ok {
		return raw
	}

	year := parts[2]
	if len(year) != 4 {
		return raw
	}
	if _, err := strconv.Atoi(year); err != nil {
		return raw
	}

	return fmt.Sprintf("%s-%s-%02d", year, month, day)
}

// hsbcDate parses DD/MM/YYYY into YYYY-MM-DD
func hsbcDate(raw string) string {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return raw
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return raw
	}

	mon, err := strconv.Atoi(parts[1])
	if err != nil || mon < 1 || mon > 12 {
		return raw
	}

	year := parts[2]
	if len(year) != 4 {
		return raw
	}
	if _, err := strconv.Atoi(year); err != nil {
		return raw
	}

	return fmt.Sprintf("%s-%02d-%02d", year, mon, day)
}
