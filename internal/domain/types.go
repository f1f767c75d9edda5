// Package domain defines the canonical shapes shared by the import pipeline:
// draft records, transaction types, source formats and per-file column
// configuration.
package domain

import (
	"fmt"
	"time"
)

// TransactionType is the normalized transaction kind all bank-specific
// codes are mapped into.
type TransactionType string

const (
	TypeIncome    TransactionType = "income"
	TypeExpense   TransactionType = "expense"
	TypeTransfer  TransactionType = "transfer"
	TypeDebt      TransactionType = "debt"
	TypeInvesting TransactionType = "investing"
)

var validTransactionTypes = map[TransactionType]struct{}{
	TypeIncome: {}, TypeExpense: {}, TypeTransfer: {},
	TypeDebt: {}, TypeInvesting: {},
}

// ValidateTransactionType checks if the transaction type is a known value
func ValidateTransactionType(t TransactionType) bool {
	_, ok := validTransactionTypes[t]
	return ok
}

// SourceFormat identifies the statement layout a record was parsed from
type SourceFormat string

const (
	FormatBarclays SourceFormat = "barclays"
	FormatHSBC     SourceFormat = "hsbc"
	FormatGeneric  SourceFormat = "generic"
)

// DefaultCategory is the placeholder handed to the ledger when a record
// reaches commit with an empty category.
const DefaultCategory = "Uncategorized"

// DraftRecord is one parsed statement line awaiting review. It is held
// in memory for the duration of a session and re-derived from scratch on
// every rule or config edit, so every field here must be computable
// deterministically from the session inputs.
type DraftRecord struct {
	ID             string `json:"id"`
	RawDate        string `json:"rawDate"`
	RawTypeCode    string `json:"rawTypeCode"`
	RawDescription string `json:"rawDescription"`
	// Sign convention: negative = outflow, positive = inflow. Parsers
	// normalize to this regardless of how the source file represents it.
	RawAmount    float64      `json:"rawAmount"`
	RawBalance   string       `json:"rawBalance,omitempty"`
	SourceFormat SourceFormat `json:"sourceFormat"`

	ResolvedType        TransactionType `json:"resolvedType"`
	ResolvedDescription string          `json:"resolvedDescription"`
	ResolvedCategory    string          `json:"resolvedCategory"`
	FromAccountID       string          `json:"resolvedFromAccountId"`
	ToAccountID         string          `json:"resolvedToAccountId"`
	Notes               string          `json:"resolvedNotes"`

	// MatchedPairID, when set, names a sibling record whose own
	// MatchedPairID points back here. The credit leg carries
	// IsTransferMirror and is never committed.
	MatchedPairID    string `json:"matchedPairId,omitempty"`
	IsTransfer       bool   `json:"isTransfer"`
	IsTransferMirror bool   `json:"isTransferMirror"`

	Skip              bool   `json:"skip"`
	SourceFile        string `json:"sourceFile"`
	AccountAnnotation string `json:"rawAccountAnnotation,omitempty"`
	AccountWarning    string `json:"accountWarning,omitempty"`
	DuplicateWarning  string `json:"duplicateWarning,omitempty"`
}

// Committable reports whether the record is eligible for a ledger commit:
// not skipped, not a mirror leg, and resolved to at least one account.
func (r *DraftRecord) Committable() bool {
	if r.Skip || r.IsTransferMirror {
		return false
	}
	return r.FromAccountID != "" || r.ToAccountID != ""
}

// Date parses the record's raw date leniently. Unparseable dates return
// the zero time rather than an error; callers treat those as epoch 0 when
// ordering and exclude them from date-window comparisons.
func (r *DraftRecord) Date() time.Time {
	t, err := time.Parse("2006-01-02", r.RawDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ColumnConfig is the per-file column mapping. Created from header
// sniffing defaults when a file loads, edited by the reviewer, consumed on
// every re-derivation pass, and discarded with the file.
type ColumnConfig struct {
	// AccountID is the single configured account for the whole file,
	// used when no per-row account annotation is present.
	AccountID string `json:"accountId"`
	// AccountColumn names a column carrying per-row account annotations
	// (base name plus an optional #Debt / #Savings suffix).
	AccountColumn string `json:"accountColumn"`

	DateColumn        string `json:"dateColumn"`
	TypeColumn        string `json:"typeColumn"`
	DescriptionColumn string `json:"descriptionColumn"`

	// DualAmount selects separate debit/credit columns over a single
	// signed amount column.
	DualAmount   bool   `json:"dualAmount"`
	AmountColumn string `json:"amountColumn"`
	DebitColumn  string `json:"debitColumn"`
	CreditColumn string `json:"creditColumn"`
}

// HasExplicitColumns reports whether the reviewer has mapped amount
// columns explicitly, which takes precedence over format conventions.
func (c *ColumnConfig) HasExplicitColumns() bool {
	if c == nil {
		return false
	}
	if c.DualAmount {
		return c.DebitColumn != "" || c.CreditColumn != ""
	}
	return c.AmountColumn != ""
}

// Validate checks the config is internally consistent before a parse pass
func (c *ColumnConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.DualAmount && c.DebitColumn == "" && c.CreditColumn == "" {
		return fmt.Errorf("dual amount mode requires a debit or credit column")
	}
	return nil
}
