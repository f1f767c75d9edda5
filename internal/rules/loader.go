package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// RuleSet is the top-level YAML structure holding all three rule kinds
type RuleSet struct {
	TypeMappings  []TypeMappingRule `yaml:"type_mappings"`
	MerchantRules []MerchantRule    `yaml:"merchant_rules"`
	TransferRules []TransferRule    `yaml:"transfer_rules"`
}

// Load parses and validates a YAML rule set. Merchant and transfer rules
// are sorted by their explicit sort key; a stable sort preserves file order
// for equal keys so evaluation order stays deterministic.
func Load(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	for i, m := range rs.TypeMappings {
		if m.BankCode == "" {
			return nil, fmt.Errorf("type mapping %d: bank code cannot be empty", i)
		}
		if m.MapsTo == "" {
			return nil, fmt.Errorf("type mapping %d (%s): target type cannot be empty", i, m.BankCode)
		}
	}
	for i, r := range rs.MerchantRules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("merchant rule %d (%s): %w", i, r.ID, err)
		}
	}
	for i, r := range rs.TransferRules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("transfer rule %d (%s): %w", i, r.ID, err)
		}
	}

	sort.SliceStable(rs.MerchantRules, func(i, j int) bool {
		return rs.MerchantRules[i].SortOrder < rs.MerchantRules[j].SortOrder
	})
	sort.SliceStable(rs.TransferRules, func(i, j int) bool {
		return rs.TransferRules[i].SortOrder < rs.TransferRules[j].SortOrder
	})

	return &rs, nil
}

// LoadEmbedded loads the embedded seed rule set
func LoadEmbedded() (*RuleSet, error) {
	rs, err := Load(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return rs, nil
}

// LoadFromFile loads a rule set from a filesystem path
func LoadFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rs, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return rs, nil
}
