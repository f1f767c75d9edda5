// Package accounts holds the known asset and debt accounts and resolves
// statement rows against them.
package accounts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suffix markers recognized on per-row account annotations. The base name
// before the marker is looked up in the matching collection.
const (
	DebtMarker    = "#Debt"
	SavingsMarker = "#Savings"
)

// Account is a known ledger account the resolver can assign records to
type Account struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Known is the set of accounts available to the resolver. Assets covers
// current and savings accounts; Debts covers credit cards and loans.
type Known struct {
	Assets []Account `yaml:"assets"`
	Debts  []Account `yaml:"debts"`
}

// Load parses a known-accounts YAML document
func Load(data []byte) (*Known, error) {
	var k Known
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("failed to parse accounts YAML (check syntax and field names): %w", err)
	}

	for i, a := range k.Assets {
		if a.ID == "" || a.Name == "" {
			return nil, fmt.Errorf("asset account %d: id and name are required", i)
		}
	}
	for i, a := range k.Debts {
		if a.ID == "" || a.Name == "" {
			return nil, fmt.Errorf("debt account %d: id and name are required", i)
		}
	}

	return &k, nil
}

// LoadFromFile loads known accounts from a filesystem path
func LoadFromFile(path string) (*Known, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}
	k, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts from %q: %w", path, err)
	}
	return k, nil
}

// Resolution is the outcome of resolving one row. At most one of From/To
// is set for a simple expense or income row; Warning is advisory and never
// blocks parsing.
type Resolution struct {
	From    string
	To      string
	Warning string
}

// Resolve decides the debit/credit account assignment for a row.
//
// A per-row annotation takes precedence over the file-wide configured
// account: the recognized suffix marker is stripped to get a base name and
// the collection to search (debts for #Debt, assets otherwise). Direction
// is inferred purely from amount sign: inflows land on To, outflows on
// From. Bank exports rarely provide an explicit pairing, so this is a
// heuristic the reviewer can correct before commit.
func (k *Known) Resolve(amount float64, configuredID, annotation string) Resolution {
	if strings.TrimSpace(annotation) != "" {
		return k.resolveAnnotation(amount, annotation)
	}

	if configuredID != "" {
		from, to := assignBySign(amount, configuredID)
		return Resolution{From: from, To: to}
	}

	return Resolution{}
}

func (k *Known) resolveAnnotation(amount float64, annotation string) Resolution {
	base := strings.TrimSpace(annotation)
	pool := k.Assets
	poolName := "asset"

	switch {
	case strings.HasSuffix(base, DebtMarker):
		base = strings.TrimSpace(strings.TrimSuffix(base, DebtMarker))
		pool = k.Debts
		poolName = "debt"
	case strings.HasSuffix(base, SavingsMarker):
		base = strings.TrimSpace(strings.TrimSuffix(base, SavingsMarker))
	}

	for _, acc := range pool {
		if strings.EqualFold(acc.Name, base) {
			from, to := assignBySign(amount, acc.ID)
			return Resolution{From: from, To: to}
		}
	}

	return Resolution{
		Warning: fmt.Sprintf("account %q not found among known %s accounts", base, poolName),
	}
}

// assignBySign places the account on the inflow (To) side for non-negative
// amounts and the outflow (From) side otherwise
func assignBySign(amount float64, id string) (from, to string) {
	if amount >= 0 {
		return "", id
	}
	return id, ""
}
