package rules

import "fmt"

// TransferRule is a symmetric pairing heuristic for internal transfers: a
// debit whose description contains FromContains is paired with a credit
// whose description contains ToContains, within the rule's tolerance
// window. Several debit/credit pairs may satisfy one rule.
type TransferRule struct {
	ID            string `yaml:"id" json:"id"`
	Label         string `yaml:"label" json:"label"`
	FromContains  string `yaml:"from_contains" json:"fromDescriptionContains"`
	ToContains    string `yaml:"to_contains" json:"toDescriptionContains"`
	ToleranceDays int    `yaml:"tolerance_days" json:"toleranceDays"`
	SortOrder     int    `yaml:"sort_order" json:"sortOrder"`
}

// Validate reports configuration problems a rule editor should reject
func (r *TransferRule) Validate() error {
	if r.FromContains == "" || r.ToContains == "" {
		return fmt.Errorf("both from and to description patterns are required")
	}
	if r.ToleranceDays < 0 {
		return fmt.Errorf("tolerance days must be non-negative, got %d", r.ToleranceDays)
	}
	return nil
}
