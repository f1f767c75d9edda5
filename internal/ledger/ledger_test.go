package ledger

import (
	"context"
	"testing"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

func testKnown() *accounts.Known {
	return &accounts.Known{
		Assets: []accounts.Account{{ID: "acc-current", Name: "Current"}},
		Debts:  []accounts.Account{{ID: "acc-visa", Name: "Visa"}},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCommitBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []domain.DraftRecord{
		{
			ID:                  "a:0",
			RawDate:             "2026-01-15",
			RawAmount:           -42.00,
			ResolvedDescription: "Tesco",
			ResolvedType:        domain.TypeExpense,
			ResolvedCategory:    "Groceries",
			FromAccountID:       "acc-current",
		},
		{
			ID:                  "a:1",
			RawDate:             "2026-01-16",
			RawAmount:           1850.00,
			ResolvedDescription: "Payroll",
			ResolvedType:        domain.TypeIncome,
			ToAccountID:         "acc-current",
		},
	}

	batchID, err := store.CommitBatch(ctx, records, testKnown())
	if err != nil {
		t.Fatalf("CommitBatch() error = %v", err)
	}
	if batchID == "" {
		t.Fatal("CommitBatch() returned empty batch ID")
	}

	n, err := store.CountBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("CountBatch() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountBatch() = %d, want 2", n)
	}
}

func TestCommitBatch_RejectsNonCommittable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []domain.DraftRecord{
		{ID: "a:0", RawDate: "2026-01-15", FromAccountID: "acc-current", ResolvedType: domain.TypeExpense},
		{ID: "a:1", RawDate: "2026-01-16", ResolvedType: domain.TypeExpense},
	}

	if _, err := store.CommitBatch(ctx, records, testKnown()); err == nil {
		t.Fatal("CommitBatch() expected error for unresolved record")
	}

	// All-or-nothing: the valid record must not have been written either
	var n int
	err := store.db.QueryRow(`SELECT COUNT(*) FROM ledger_transactions`).Scan(&n)
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if n != 0 {
		t.Errorf("ledger holds %d rows after failed batch, want 0", n)
	}
}

func TestCommitBatch_BatchIDsDistinct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := domain.DraftRecord{
		ID: "a:0", RawDate: "2026-01-15", RawAmount: -1,
		ResolvedDescription: "x", ResolvedType: domain.TypeExpense,
		FromAccountID: "acc-current",
	}

	first, err := store.CommitBatch(ctx, []domain.DraftRecord{rec}, nil)
	if err != nil {
		t.Fatalf("first CommitBatch() error = %v", err)
	}
	second, err := store.CommitBatch(ctx, []domain.DraftRecord{rec}, nil)
	if err != nil {
		t.Fatalf("second CommitBatch() error = %v", err)
	}
	if first == second {
		t.Error("two commits share a batch ID")
	}
}

func TestEntryFromRecord(t *testing.T) {
	known := testKnown()

	t.Run("expense targets the outflow account", func(t *testing.T) {
		rec := domain.DraftRecord{
			RawDate:             "2026-01-15",
			RawAmount:           -42.00,
			ResolvedDescription: "Tesco",
			ResolvedType:        domain.TypeExpense,
			ResolvedCategory:    "Groceries",
			FromAccountID:       "acc-current",
		}
		e := EntryFromRecord(&rec, known)
		if e.AccountID != "acc-current" || e.DebtID != "" {
			t.Errorf("target = account:%q debt:%q, want account acc-current", e.AccountID, e.DebtID)
		}
		if e.Category != "Groceries" {
			t.Errorf("category = %q, want Groceries", e.Category)
		}
	})

	t.Run("debt account classified as debt target", func(t *testing.T) {
		rec := domain.DraftRecord{
			RawDate:       "2026-01-15",
			RawAmount:     -120.00,
			ResolvedType:  domain.TypeDebt,
			FromAccountID: "acc-visa",
		}
		e := EntryFromRecord(&rec, known)
		if e.DebtID != "acc-visa" || e.AccountID != "" {
			t.Errorf("target = account:%q debt:%q, want debt acc-visa", e.AccountID, e.DebtID)
		}
	})

	t.Run("income falls back to the inflow account", func(t *testing.T) {
		rec := domain.DraftRecord{
			RawDate:      "2026-01-16",
			RawAmount:    1850.00,
			ResolvedType: domain.TypeIncome,
			ToAccountID:  "acc-current",
		}
		e := EntryFromRecord(&rec, known)
		if e.AccountID != "acc-current" {
			t.Errorf("target = %q, want acc-current", e.AccountID)
		}
		if e.CounterpartyID != "" {
			t.Errorf("counterparty = %q, want empty", e.CounterpartyID)
		}
	})

	t.Run("transfer carries the counterparty", func(t *testing.T) {
		rec := domain.DraftRecord{
			RawDate:       "2026-01-15",
			RawAmount:     -200.00,
			ResolvedType:  domain.TypeTransfer,
			FromAccountID: "acc-current",
			ToAccountID:   "acc-visa",
		}
		e := EntryFromRecord(&rec, known)
		if e.AccountID != "acc-current" {
			t.Errorf("target = %q, want acc-current", e.AccountID)
		}
		if e.CounterpartyID != "acc-visa" {
			t.Errorf("counterparty = %q, want acc-visa", e.CounterpartyID)
		}
	})

	t.Run("empty category falls back to placeholder", func(t *testing.T) {
		rec := domain.DraftRecord{
			RawDate:       "2026-01-15",
			RawAmount:     -1,
			ResolvedType:  domain.TypeExpense,
			FromAccountID: "acc-current",
		}
		e := EntryFromRecord(&rec, known)
		if e.Category != domain.DefaultCategory {
			t.Errorf("category = %q, want %q", e.Category, domain.DefaultCategory)
		}
	})
}
