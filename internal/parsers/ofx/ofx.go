// Package ofx ingests OFX/QFX statements as draft records. OFX files are
// self-identifying, so unlike the CSV path there is no header sniffing or
// column configuration; rows take the file-wide configured account and the
// usual sign-based type fallback, then flow through the same merchant and
// transfer passes as CSV rows.
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ids"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

// Parser implements OFX/QFX parsing with a stateless design, safe for
// concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared OFX parser instance
func NewParser() *Parser {
	return parserInstance
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "ofx"
}

// CanParse checks if this parser can handle the file based on extension
// and header markers
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}

	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>")
}

// Parse extracts draft records from an OFX/QFX file
func (p *Parser) Parse(ctx context.Context, r io.Reader, opts parser.Options) ([]domain.DraftRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content from %s: %w", opts.FileName, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file %s (%d bytes): %w", opts.FileName, len(content), err)
	}

	tranList, err := transactionList(response)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.FileName, err)
	}

	records := make([]domain.DraftRecord, 0, len(tranList.Transactions))
	for _, txn := range tranList.Transactions {
		records = append(records, p.toDraftRecord(txn, len(records), opts))
	}

	return records, nil
}

// transactionList locates the statement's transaction list, covering bank
// and credit-card responses
func transactionList(resp *ofxgo.Response) (*ofxgo.TransactionList, error) {
	if len(resp.Bank) > 0 {
		stmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected bank statement type %T", resp.Bank[0])
		}
		if stmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in bank statement")
		}
		return stmt.BankTranList, nil
	}

	if len(resp.CreditCard) > 0 {
		stmt, ok := resp.CreditCard[0].(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected credit card statement type %T", resp.CreditCard[0])
		}
		if stmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in credit card statement")
		}
		return stmt.BankTranList, nil
	}

	return nil, fmt.Errorf("no supported statement type found (expected a bank or credit card statement)")
}

// toDraftRecord converts one OFX transaction. OFX amounts already carry
// the outflow-negative sign convention, and dates are real time values, so
// the lenient text normalization the CSV path needs does not apply here.
func (p *Parser) toDraftRecord(txn ofxgo.Transaction, ordinal int, opts parser.Options) domain.DraftRecord {
	date := txn.DtPosted.Time
	if date.IsZero() {
		date = txn.DtUser.Time
	}
	rawDate := ""
	if !date.IsZero() {
		rawDate = date.Format("2006-01-02")
	}

	description := strings.TrimSpace(txn.Name.String())
	if description == "" {
		description = strings.TrimSpace(txn.Memo.String())
	}

	amount, _ := txn.TrnAmt.Float64()
	typeCode := txn.TrnType.String()

	configuredAccount := ""
	if opts.Config != nil {
		configuredAccount = opts.Config.AccountID
	}
	res := opts.KnownAccounts().Resolve(amount, configuredAccount, "")

	return domain.DraftRecord{
		ID:                  ids.RecordID(opts.FileName, ordinal),
		RawDate:             rawDate,
		RawTypeCode:         typeCode,
		RawDescription:      description,
		RawAmount:           amount,
		SourceFormat:        domain.FormatGeneric,
		ResolvedType:        rules.ResolveType(typeCode, amount, opts.TypeMappings),
		ResolvedDescription: description,
		FromAccountID:       res.From,
		ToAccountID:         res.To,
		SourceFile:          opts.FileName,
	}
}
