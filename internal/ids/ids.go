// Package ids generates the identifiers used during a review session.
// Record IDs are deterministic functions of their source so the pipeline
// reproduces identical output when inputs are replayed; rule IDs are random
// temporaries reconciled against store-assigned IDs on first save.
package ids

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TempRulePrefix marks a locally generated rule ID that has not been
// persisted yet. The rule store replaces it with its own identifier.
const TempRulePrefix = "tmp-"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyFile converts a file name into a lowercase alphanumeric slug.
// Accented characters are decomposed and stripped rather than dropped, so
// "Relevé.csv" and "Releve.csv" produce the same slug.
func SlugifyFile(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, name)
	if err != nil {
		normalized = name
	}

	slug := strings.ToLower(normalized)
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "file"
	}
	return slug
}

// RecordID builds the deterministic draft-record identifier for a data
// line. Ordinal is the line's position among the file's data lines, so the
// same file content always yields the same IDs.
func RecordID(fileName string, ordinal int) string {
	return fmt.Sprintf("%s:%d", SlugifyFile(fileName), ordinal)
}

// NewTempRuleID returns a fresh temporary rule identifier
func NewTempRuleID() string {
	return TempRulePrefix + uuid.New().String()
}

// IsTempRuleID reports whether the ID is a local temporary awaiting a
// store-assigned identifier
func IsTempRuleID(id string) bool {
	return strings.HasPrefix(id, TempRulePrefix)
}
