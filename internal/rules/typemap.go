// Package rules provides the rule records applied during statement review:
// bank-code type mappings, merchant match/set rules and transfer pairing
// rules, plus YAML loading for seed rule sets.
package rules

import (
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// TypeMappingRule maps one bank type code to a canonical transaction type
type TypeMappingRule struct {
	ID       string                 `yaml:"id" json:"id"`
	BankCode string                 `yaml:"bank_code" json:"bankCode"`
	MapsTo   domain.TransactionType `yaml:"maps_to" json:"mapsTo"`
}

// ResolveType maps a bank type code to a canonical type using the given
// mapping rules. Bank-code comparison is case-insensitive and the last
// matching rule wins, so an edited duplicate overrides its predecessor.
// When no rule matches, the type defaults by amount sign: non-negative is
// income-like, negative is expense-like. An unmapped code never errors.
func ResolveType(code string, amount float64, mappings []TypeMappingRule) domain.TransactionType {
	code = strings.TrimSpace(code)

	resolved := domain.TransactionType("")
	for _, m := range mappings {
		if strings.EqualFold(m.BankCode, code) && code != "" {
			resolved = m.MapsTo
		}
	}
	if resolved != "" && domain.ValidateTransactionType(resolved) {
		return resolved
	}

	if amount >= 0 {
		return domain.TypeIncome
	}
	return domain.TypeExpense
}
