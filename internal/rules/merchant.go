package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// PatternMode selects how a merchant rule's description pattern is matched
type PatternMode string

const (
	// PatternContains matches by case-insensitive substring containment
	PatternContains PatternMode = "contains"
	// PatternRegex compiles the pattern as a case-insensitive regular
	// expression; a pattern that fails to compile degrades to contains
	// matching at evaluation time
	PatternRegex PatternMode = "regex"
)

// MerchantRule is an ordered match/set rule. The enabled match conditions
// are ANDed; on the first rule that fully matches a record, every non-empty
// set action is applied and remaining rules are skipped for that record.
type MerchantRule struct {
	ID        string `yaml:"id" json:"id"`
	SortOrder int    `yaml:"sort_order" json:"sortOrder"`

	MatchDescription    bool        `yaml:"match_description" json:"matchDescription"`
	DescriptionContains string      `yaml:"description_contains" json:"descriptionContains"`
	DescriptionMode     PatternMode `yaml:"description_mode" json:"descriptionMode"`

	MatchType  bool                   `yaml:"match_type" json:"matchType"`
	TypeEquals domain.TransactionType `yaml:"type_equals" json:"typeEquals"`

	MatchAmount  bool    `yaml:"match_amount" json:"matchAmount"`
	AmountEquals float64 `yaml:"amount_equals" json:"amountEquals"`

	SetDescription   string                 `yaml:"set_description" json:"setDescription"`
	SetCategory      string                 `yaml:"set_category" json:"setCategory"`
	SetType          domain.TransactionType `yaml:"set_type" json:"setType"`
	SetFromAccountID string                 `yaml:"set_from_account_id" json:"setFromAccountId"`
	SetToAccountID   string                 `yaml:"set_to_account_id" json:"setToAccountId"`
	SetNotes         string                 `yaml:"set_notes" json:"setNotes"`
}

// Validate reports configuration problems a rule editor should reject
// before saving. Evaluation itself never fails on these: a degenerate rule
// simply never fires, and a bad regex degrades to substring matching.
func (r *MerchantRule) Validate() error {
	if !r.MatchDescription && !r.MatchType && !r.MatchAmount {
		return fmt.Errorf("rule has no match condition enabled and can never fire")
	}
	if r.MatchType && !domain.ValidateTransactionType(r.TypeEquals) {
		return fmt.Errorf("invalid transaction type %q", r.TypeEquals)
	}
	if r.SetType != "" && !domain.ValidateTransactionType(r.SetType) {
		return fmt.Errorf("invalid set type %q", r.SetType)
	}
	if r.MatchDescription && r.DescriptionMode == PatternRegex {
		if _, err := regexp.Compile("(?i)" + r.DescriptionContains); err != nil {
			return fmt.Errorf("description pattern does not compile: %w", err)
		}
	}
	return nil
}

// matches evaluates the enabled conditions against a record, ANDed. A rule
// with no condition enabled never matches even though an empty AND is
// vacuously true. Firing set actions unconditionally on every record is
// never what a rule author intended.
func (r *MerchantRule) matches(rec *domain.DraftRecord) bool {
	if !r.MatchDescription && !r.MatchType && !r.MatchAmount {
		return false
	}

	if r.MatchDescription && !matchDescription(rec.RawDescription, r.DescriptionContains, r.DescriptionMode) {
		return false
	}
	if r.MatchType && rec.ResolvedType != r.TypeEquals {
		return false
	}
	if r.MatchAmount && math.Abs(rec.RawAmount) != r.AmountEquals {
		return false
	}

	return true
}

// matchDescription tests the description pattern. Regex mode compiles the
// pattern case-insensitively; on compile failure it silently degrades to
// substring containment rather than failing the rule pass.
func matchDescription(description, pattern string, mode PatternMode) bool {
	if mode == PatternRegex {
		re, err := regexp.Compile("(?i)" + pattern)
		if err == nil {
			return re.MatchString(description)
		}
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(pattern))
}

// apply copies every non-empty set action onto the record
func (r *MerchantRule) apply(rec *domain.DraftRecord) {
	if r.SetDescription != "" {
		rec.ResolvedDescription = r.SetDescription
	}
	if r.SetCategory != "" {
		rec.ResolvedCategory = r.SetCategory
	}
	if r.SetType != "" {
		rec.ResolvedType = r.SetType
	}
	if r.SetFromAccountID != "" {
		rec.FromAccountID = r.SetFromAccountID
	}
	if r.SetToAccountID != "" {
		rec.ToAccountID = r.SetToAccountID
	}
	if r.SetNotes != "" {
		rec.Notes = r.SetNotes
	}
}

// ApplyMerchantRules runs the ordered rule list over every record, first
// full match wins. The input slice is not mutated; the transform returns a
// fresh copy so re-running it over its own output is a no-op.
func ApplyMerchantRules(records []domain.DraftRecord, ruleList []MerchantRule) []domain.DraftRecord {
	out := make([]domain.DraftRecord, len(records))
	copy(out, records)

	for i := range out {
		for j := range ruleList {
			if ruleList[j].matches(&out[i]) {
				ruleList[j].apply(&out[i])
				break
			}
		}
	}

	return out
}
