// Package dedup flags likely duplicate rows across loaded files via
// SHA256 fingerprinting.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// Fingerprint creates a SHA256 hash of date, amount and description.
// Format: SHA256("{date}|{amount}|{normalizedDescription}") with the
// amount fixed to 2 decimal places and the description lowercased and
// trimmed, so the same posting fingerprints identically regardless of
// source file formatting.
func Fingerprint(date string, amount float64, description string) string {
	normalizedDesc := strings.ToLower(strings.TrimSpace(description))
	input := fmt.Sprintf("%s|%.2f|%s", date, amount, normalizedDesc)

	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// FlagDuplicates attaches an advisory warning to every record whose
// (date, amount, description) fingerprint already appeared in an earlier
// record from a different file, the usual symptom of the same statement
// being uploaded twice under two names. Rows inside one file are left
// alone: identical same-day postings within a statement are legitimate.
// The input slice is not mutated and the pass is deterministic, so
// re-derivation reproduces identical warnings.
func FlagDuplicates(records []domain.DraftRecord) []domain.DraftRecord {
	out := make([]domain.DraftRecord, len(records))
	copy(out, records)

	firstSeen := make(map[string]int, len(out))
	for i := range out {
		out[i].DuplicateWarning = ""

		fp := Fingerprint(out[i].RawDate, out[i].RawAmount, out[i].RawDescription)
		j, seen := firstSeen[fp]
		if !seen {
			firstSeen[fp] = i
			continue
		}
		if out[j].SourceFile == out[i].SourceFile {
			continue
		}
		out[i].DuplicateWarning = fmt.Sprintf("possible duplicate of %q row also present in %s", out[i].RawDescription, out[j].SourceFile)
	}

	return out
}
