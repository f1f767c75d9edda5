// Package ledger persists committed records into a local sqlite database.
// A commit is all-or-nothing: the whole batch inserts inside a single
// transaction, so on failure nothing is assumed committed and the review
// state can be retried untouched.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id        TEXT NOT NULL,
	account_id      TEXT,
	debt_id         TEXT,
	counterparty_id TEXT,
	tx_date         TEXT NOT NULL,
	description     TEXT NOT NULL,
	amount          REAL NOT NULL,
	tx_type         TEXT NOT NULL,
	category        TEXT NOT NULL,
	notes           TEXT,
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_ledger_batch ON ledger_transactions(batch_id);
CREATE INDEX IF NOT EXISTS idx_ledger_date ON ledger_transactions(tx_date);
`

// Store is a sqlite-backed ledger
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the ledger database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is one row handed to the ledger. AccountID and DebtID are
// mutually exclusive targets; CounterpartyID carries the other side of a
// transfer when both legs resolved.
type Entry struct {
	AccountID      string
	DebtID         string
	CounterpartyID string
	Date           string
	Description    string
	Amount         float64
	Type           domain.TransactionType
	Category       string
	Notes          string
}

// EntryFromRecord maps a committable draft record onto a ledger entry.
// The target is the record's primary resolved account (the outflow side
// for expenses and transfers, the inflow side for income), classified as
// a debt target when it names a known debt account. An empty category
// falls back to the fixed placeholder.
func EntryFromRecord(rec *domain.DraftRecord, known *accounts.Known) Entry {
	target := rec.FromAccountID
	counterparty := rec.ToAccountID
	if target == "" {
		target = rec.ToAccountID
		counterparty = ""
	}

	category := rec.ResolvedCategory
	if category == "" {
		category = domain.DefaultCategory
	}

	e := Entry{
		CounterpartyID: counterparty,
		Date:           rec.RawDate,
		Description:    rec.ResolvedDescription,
		Amount:         rec.RawAmount,
		Type:           rec.ResolvedType,
		Category:       category,
		Notes:          rec.Notes,
	}

	if known != nil && isDebt(known, target) {
		e.DebtID = target
	} else {
		e.AccountID = target
	}
	return e
}

func isDebt(known *accounts.Known, id string) bool {
	for _, acc := range known.Debts {
		if acc.ID == id {
			return true
		}
	}
	return false
}

// CommitBatch inserts every committable record as one atomic batch and
// returns the batch identifier. Records that are skipped, mirror legs, or
// unresolved are rejected up front rather than silently dropped; the
// caller is expected to pass an already filtered commit set.
func (s *Store) CommitBatch(ctx context.Context, records []domain.DraftRecord, known *accounts.Known) (string, error) {
	for i := range records {
		if !records[i].Committable() {
			return "", fmt.Errorf("record %s is not committable", records[i].ID)
		}
	}

	batchID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_transactions
			(batch_id, account_id, debt_id, counterparty_id, tx_date, description, amount, tx_type, category, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		e := EntryFromRecord(&records[i], known)
		if _, err := stmt.ExecContext(ctx,
			batchID,
			nullable(e.AccountID), nullable(e.DebtID), nullable(e.CounterpartyID),
			e.Date, e.Description, e.Amount, string(e.Type), e.Category, nullable(e.Notes),
		); err != nil {
			return "", fmt.Errorf("failed to insert record %s: %w", records[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit ledger batch: %w", err)
	}
	return batchID, nil
}

// CountBatch returns how many rows a committed batch holds
func (s *Store) CountBatch(ctx context.Context, batchID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_transactions WHERE batch_id = ?`, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count batch %s: %w", batchID, err)
	}
	return n, nil
}

// nullable turns an empty string into a SQL NULL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
