package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

func TestLoadEmbedded(t *testing.T) {
	rs, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	if len(rs.TypeMappings) == 0 {
		t.Error("embedded rule set should seed type mappings")
	}

	// The seed mappings must only target canonical types
	for _, m := range rs.TypeMappings {
		if !domain.ValidateTransactionType(m.MapsTo) {
			t.Errorf("seed mapping %s targets invalid type %q", m.BankCode, m.MapsTo)
		}
	}
}

func TestLoad_SortsByExplicitOrder(t *testing.T) {
	data := []byte(`
merchant_rules:
  - id: r-late
    sort_order: 10
    match_description: true
    description_contains: tesco
    set_category: Groceries
  - id: r-early
    sort_order: 1
    match_description: true
    description_contains: tesco
    set_category: Shopping
transfer_rules:
  - id: t-late
    sort_order: 5
    from_contains: savings
    to_contains: incoming
  - id: t-early
    sort_order: 2
    from_contains: pot
    to_contains: incoming
`)

	rs, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if rs.MerchantRules[0].ID != "r-early" {
		t.Errorf("first merchant rule = %s, want r-early", rs.MerchantRules[0].ID)
	}
	if rs.TransferRules[0].ID != "t-early" {
		t.Errorf("first transfer rule = %s, want t-early", rs.TransferRules[0].ID)
	}
}

func TestLoad_RejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "type mapping without bank code",
			data: "type_mappings:\n  - id: m1\n    maps_to: expense\n",
		},
		{
			name: "type mapping without target",
			data: "type_mappings:\n  - id: m1\n    bank_code: DEB\n",
		},
		{
			name: "merchant rule with no condition",
			data: "merchant_rules:\n  - id: r1\n    set_category: Groceries\n",
		},
		{
			name: "transfer rule missing to pattern",
			data: "transfer_rules:\n  - id: t1\n    from_contains: savings\n",
		},
		{
			name: "transfer rule negative tolerance",
			data: "transfer_rules:\n  - id: t1\n    from_contains: a\n    to_contains: b\n    tolerance_days: -1\n",
		},
		{
			name: "malformed yaml",
			data: "type_mappings: [unclosed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	data := `
type_mappings:
  - id: m1
    bank_code: DEB
    maps_to: expense
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	rs, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if len(rs.TypeMappings) != 1 || rs.TypeMappings[0].MapsTo != domain.TypeExpense {
		t.Errorf("LoadFromFile() mappings = %+v", rs.TypeMappings)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}

func TestTransferRuleValidate(t *testing.T) {
	valid := TransferRule{ID: "t1", FromContains: "savings", ToContains: "incoming", ToleranceDays: 2}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}

	missing := TransferRule{ID: "t2", FromContains: "savings"}
	if err := missing.Validate(); err == nil {
		t.Error("Validate() expected error for missing to pattern")
	}

	negative := TransferRule{ID: "t3", FromContains: "a", ToContains: "b", ToleranceDays: -1}
	if err := negative.Validate(); err == nil {
		t.Error("Validate() expected error for negative tolerance")
	}
}
