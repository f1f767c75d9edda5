// Package transfers pairs debit and credit statement rows into internal
// transfer relationships.
package transfers

import (
	"math"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

// AmountTolerance absorbs floating rounding in currency-minor-unit math
// when comparing the two legs of a transfer.
const AmountTolerance = 0.02

// TransferCategory is forced onto the canonical leg of a matched pair.
const TransferCategory = "Transfer"

// Apply pairs records across all loaded files according to the transfer
// rules. The transform is idempotent: all transfer-derived pairing state is
// cleared first and recomputed from scratch, and every pairing decision
// reads only raw fields, so re-running on its own output reproduces the
// same pairings.
//
// Rules apply in sequence against the accumulating state; a leg claimed by
// an earlier rule is never reconsidered by a later one. The input slice is
// not mutated.
func Apply(records []domain.DraftRecord, ruleList []rules.TransferRule) []domain.DraftRecord {
	out := make([]domain.DraftRecord, len(records))
	copy(out, records)

	for i := range out {
		out[i].MatchedPairID = ""
		out[i].IsTransfer = false
		out[i].IsTransferMirror = false
	}

	for r := range ruleList {
		applyRule(out, &ruleList[r])
	}

	return out
}

// applyRule scans for unmatched debit/credit pairs satisfying one rule.
// For each unmatched debit, the first qualifying credit in original record
// order is claimed. That tie-break is a positional artifact of input
// ordering rather than a nearest-date or nearest-amount choice; it is kept
// for replay compatibility with previously reviewed sessions.
func applyRule(out []domain.DraftRecord, rule *rules.TransferRule) {
	for i := range out {
		debit := &out[i]
		if debit.MatchedPairID != "" {
			continue
		}
		if debit.RawAmount >= 0 || !containsFold(debit.RawDescription, rule.FromContains) {
			continue
		}

		for j := range out {
			credit := &out[j]
			if i == j || credit.MatchedPairID != "" {
				continue
			}
			if credit.RawAmount <= 0 || !containsFold(credit.RawDescription, rule.ToContains) {
				continue
			}
			if math.Abs(math.Abs(credit.RawAmount)-math.Abs(debit.RawAmount)) >= AmountTolerance {
				continue
			}
			if !withinDays(debit, credit, rule.ToleranceDays) {
				continue
			}

			pair(debit, credit)
			break
		}
	}
}

// pair marks the two legs of a matched transfer. The debit becomes the
// canonical leg representing the movement; the credit becomes the mirror
// leg, which is never committed. Account fields merge from whichever side
// already had them resolved.
func pair(debit, credit *domain.DraftRecord) {
	debit.IsTransfer = true
	debit.MatchedPairID = credit.ID
	debit.ResolvedType = domain.TypeTransfer
	debit.ResolvedCategory = TransferCategory
	debit.ResolvedDescription = "Transfer: " + credit.RawDescription

	if debit.FromAccountID == "" {
		debit.FromAccountID = credit.FromAccountID
	}
	if debit.ToAccountID == "" {
		debit.ToAccountID = credit.ToAccountID
	}

	credit.IsTransfer = true
	credit.IsTransferMirror = true
	credit.MatchedPairID = debit.ID
}

// withinDays checks the day tolerance between the two legs' dates.
// Records with unparseable dates never pair; the tolerance comparison is
// meaningless without both dates.
func withinDays(a, b *domain.DraftRecord, toleranceDays int) bool {
	da, db := a.Date(), b.Date()
	if da.IsZero() || db.IsZero() {
		return false
	}
	days := int(math.Abs(da.Sub(db).Hours()) / 24)
	return days <= toleranceDays
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
