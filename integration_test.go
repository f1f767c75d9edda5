package bankimport_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ledger"
	"github.com/rumor-ml/commons.systems/bankimport/internal/output"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
	"github.com/rumor-ml/commons.systems/bankimport/internal/scanner"
	"github.com/rumor-ml/commons.systems/bankimport/internal/session"
	"github.com/rumor-ml/commons.systems/bankimport/internal/validate"
)

const barclaysStatement = `Number,Date,Account,Account Name,Amount,Subcategory,Memo
1,10 Jan 2026,20-00-00 12345678,Current,1850.00,BGC,ACME PAYROLL
2,12 Jan 2026,20-00-00 12345678,Current,-42.00,DEB,TESCO STORES 1234
3,15 Jan 2026,20-00-00 12345678,Current,-200.00,TFR,TO SAVINGS POT
`

const hsbcStatement = `Date,Type,Description,Paid out,Paid in,Sort Code
16/01/2026,TFR,INCOMING TRANSFER FROM CURRENT,,200.00,40-00-00
20/01/2026,CR,INTEREST,,1.25,40-00-00
`

func writeStatements(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"current.csv": barclaysStatement,
		"savings.csv": hsbcStatement,
		"notes.txt":   "ignored",
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func testRuleSet() *rules.RuleSet {
	return &rules.RuleSet{
		TypeMappings: []rules.TypeMappingRule{
			{ID: "m1", BankCode: "DEB", MapsTo: domain.TypeExpense},
			{ID: "m2", BankCode: "BGC", MapsTo: domain.TypeIncome},
			{ID: "m3", BankCode: "TFR", MapsTo: domain.TypeTransfer},
			{ID: "m4", BankCode: "CR", MapsTo: domain.TypeIncome},
		},
		MerchantRules: []rules.MerchantRule{
			{ID: "r1", MatchDescription: true, DescriptionContains: "tesco", SetDescription: "Tesco", SetCategory: "Groceries"},
		},
		TransferRules: []rules.TransferRule{
			{ID: "t1", FromContains: "savings pot", ToContains: "incoming transfer", ToleranceDays: 2},
		},
	}
}

// Full pipeline: scan a directory, load both statements, derive, validate
// and commit into an ephemeral ledger.
func TestImportPipeline(t *testing.T) {
	ctx := context.Background()
	dir := writeStatements(t)

	paths, err := scanner.New(dir).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Scan() found %d files, want 2 (txt excluded)", len(paths))
	}

	known := &accounts.Known{
		Assets: []accounts.Account{
			{ID: "acc-current", Name: "Current"},
			{ID: "acc-savings", Name: "Savings"},
		},
	}

	sess := session.New(known)
	sess.LoadRuleSet(testRuleSet())

	for _, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		cfg := sess.AddFile(filepath.Base(path), string(text))
		if filepath.Base(path) == "current.csv" {
			cfg.AccountID = "acc-current"
		} else {
			cfg.AccountID = "acc-savings"
		}
	}

	records, issues := sess.Derive(ctx)
	if len(issues) != 0 {
		t.Fatalf("Derive() issues = %v", issues)
	}
	if len(records) != 5 {
		t.Fatalf("Derive() produced %d records, want 5", len(records))
	}

	byID := make(map[string]domain.DraftRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// Merchant rule applied over the normalized Barclays row
	groceries := byID["current-csv:1"]
	if groceries.ResolvedCategory != "Groceries" || groceries.ResolvedDescription != "Tesco" {
		t.Errorf("merchant rule not applied: %+v", groceries)
	}
	if groceries.RawDate != "2026-01-12" {
		t.Errorf("barclays date = %q, want 2026-01-12", groceries.RawDate)
	}

	// Transfer paired across the two files and formats
	debit := byID["current-csv:2"]
	credit := byID["savings-csv:0"]
	if debit.MatchedPairID != credit.ID || credit.MatchedPairID != debit.ID {
		t.Fatalf("transfer not paired: %q / %q", debit.MatchedPairID, credit.MatchedPairID)
	}
	if debit.FromAccountID != "acc-current" || debit.ToAccountID != "acc-savings" {
		t.Errorf("transfer accounts = %q -> %q", debit.FromAccountID, debit.ToAccountID)
	}

	// Derivation is reproducible
	again, _ := sess.Derive(ctx)
	for i := range records {
		if records[i] != again[i] {
			t.Errorf("record %d not reproducible:\n%+v\n%+v", i, records[i], again[i])
		}
	}

	result := validate.Records(records)
	if !result.OK() {
		t.Fatalf("validation errors = %+v", result.Errors)
	}

	doc := output.BuildReview(records, issues)
	if doc.Transfers != 1 {
		t.Errorf("review transfers = %d, want 1", doc.Transfers)
	}
	if doc.Committable != 4 {
		t.Errorf("review committable = %d, want 4 (mirror leg excluded)", doc.Committable)
	}

	store, err := ledger.Open(":memory:")
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	defer store.Close()

	commitSet := sess.CommitSet(ctx)
	if len(commitSet) != 4 {
		t.Fatalf("CommitSet() = %d records, want 4", len(commitSet))
	}

	batchID, err := store.CommitBatch(ctx, commitSet, known)
	if err != nil {
		t.Fatalf("CommitBatch() error = %v", err)
	}

	n, err := store.CountBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("CountBatch() error = %v", err)
	}
	if n != 4 {
		t.Errorf("committed %d rows, want 4", n)
	}
}

// A rule edit re-derives the whole set without disturbing pairing or IDs.
func TestImportPipeline_RuleEditStability(t *testing.T) {
	ctx := context.Background()
	dir := writeStatements(t)

	paths, err := scanner.New(dir).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	sess := session.New(&accounts.Known{})
	sess.LoadRuleSet(testRuleSet())
	for _, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		sess.AddFile(filepath.Base(path), string(text))
	}

	before, _ := sess.Derive(ctx)

	sess.SetMerchantRules([]rules.MerchantRule{
		{ID: "r1", MatchDescription: true, DescriptionContains: "tesco", SetCategory: "Food"},
	})
	after, _ := sess.Derive(ctx)

	if len(before) != len(after) {
		t.Fatalf("record count changed after rule edit: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Errorf("record %d ID changed after rule edit: %q vs %q", i, before[i].ID, after[i].ID)
		}
		if before[i].MatchedPairID != after[i].MatchedPairID {
			t.Errorf("record %s pairing changed after unrelated rule edit", before[i].ID)
		}
	}

	for _, rec := range after {
		if rec.ID == "current-csv:1" && rec.ResolvedCategory != "Food" {
			t.Errorf("edited rule not applied, category = %q", rec.ResolvedCategory)
		}
	}
}
