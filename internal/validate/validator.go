// Package validate checks a derived record set before it is offered for
// commit.
package validate

import (
	"fmt"
	"time"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// Error is a problem that blocks committing a record
type Error struct {
	RecordID string
	Field    string
	Message  string
}

// Warning is a non-critical issue surfaced to the reviewer
type Warning struct {
	RecordID string
	Field    string
	Message  string
}

// Result collects everything found while validating a record set
type Result struct {
	Errors   []Error
	Warnings []Warning
}

// OK reports whether the set can be committed as-is
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Records validates a derived record set for commit readiness. Pairing
// symmetry is checked across the whole set: a MatchedPairID must name a
// sibling whose own MatchedPairID points back.
func Records(records []domain.DraftRecord) *Result {
	result := &Result{
		Errors:   []Error{},
		Warnings: []Warning{},
	}

	byID := make(map[string]*domain.DraftRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	for i := range records {
		rec := &records[i]

		if rec.Skip || rec.IsTransferMirror {
			continue
		}

		if rec.FromAccountID == "" && rec.ToAccountID == "" {
			result.Errors = append(result.Errors, Error{
				RecordID: rec.ID,
				Field:    "account",
				Message:  "no resolved account; assign an account or a merchant rule before commit",
			})
		}

		if _, err := time.Parse("2006-01-02", rec.RawDate); err != nil {
			result.Errors = append(result.Errors, Error{
				RecordID: rec.ID,
				Field:    "date",
				Message:  fmt.Sprintf("date %q is not in YYYY-MM-DD form", rec.RawDate),
			})
		}

		if rec.ResolvedType != "" && !domain.ValidateTransactionType(rec.ResolvedType) {
			result.Errors = append(result.Errors, Error{
				RecordID: rec.ID,
				Field:    "type",
				Message:  fmt.Sprintf("unknown transaction type %q", rec.ResolvedType),
			})
		}

		if rec.MatchedPairID != "" {
			sibling, ok := byID[rec.MatchedPairID]
			if !ok {
				result.Errors = append(result.Errors, Error{
					RecordID: rec.ID,
					Field:    "matchedPairId",
					Message:  fmt.Sprintf("matched pair %q does not exist in the set", rec.MatchedPairID),
				})
			} else if sibling.MatchedPairID != rec.ID {
				result.Errors = append(result.Errors, Error{
					RecordID: rec.ID,
					Field:    "matchedPairId",
					Message:  fmt.Sprintf("matched pair %q does not point back", rec.MatchedPairID),
				})
			}
		}

		if rec.AccountWarning != "" {
			result.Warnings = append(result.Warnings, Warning{
				RecordID: rec.ID,
				Field:    "account",
				Message:  rec.AccountWarning,
			})
		}
		if rec.DuplicateWarning != "" {
			result.Warnings = append(result.Warnings, Warning{
				RecordID: rec.ID,
				Field:    "duplicate",
				Message:  rec.DuplicateWarning,
			})
		}
	}

	return result
}
