package csv

import (
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// DetectFormat classifies a header row into one of the known statement
// layouts. Detection is total: every header set maps to exactly one format,
// with generic as the default.
//
// Barclays exports carry an "Account Name" column; HSBC exports carry a
// "Sort Code" column. Neither implies the other, so a single
// format-distinguishing header is enough.
func DetectFormat(headers []string) domain.SourceFormat {
	for _, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "account name":
			return domain.FormatBarclays
		case "sort code":
			return domain.FormatHSBC
		}
	}
	return domain.FormatGeneric
}
