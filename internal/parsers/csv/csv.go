// Package csv parses CSV bank-statement exports into draft records.
package csv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ids"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

// Parser implements CSV statement parsing with a stateless design. The
// struct has no fields because all behavior is determined by the input
// text and parse options, making the parser safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared CSV parser instance
func NewParser() *Parser {
	return parserInstance
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "csv"
}

// CanParse checks if this parser can handle the file. Any .csv file is
// accepted; layout classification happens later from the header row.
func (p *Parser) CanParse(path string, header []byte) bool {
	return strings.ToLower(filepath.Ext(path)) == ".csv"
}

// Parse reads the full content and delegates to ParseText
func (p *Parser) Parse(ctx context.Context, r io.Reader, opts parser.Options) ([]domain.DraftRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content from %s: %w", opts.FileName, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return ParseText(string(content), opts), nil
}

// columnNames is the fallback chain for one extracted field: candidates
// are tried in order against the header lookup
type columnNames struct {
	date        []string
	typeCode    []string
	description []string
	amount      []string
	debit       []string
	credit      []string
	dualAmount  bool
}

// formatColumns returns the column name conventions for a detected layout.
// Generic column names are appended so a partially conventional export
// still extracts what it can.
func formatColumns(format domain.SourceFormat) columnNames {
	switch format {
	case domain.FormatBarclays:
		return columnNames{
			date:        []string{"date"},
			typeCode:    []string{"subcategory", "type"},
			description: []string{"memo", "description"},
			amount:      []string{"amount"},
		}
	case domain.FormatHSBC:
		return columnNames{
			date:        []string{"date"},
			typeCode:    []string{"type"},
			description: []string{"description"},
			debit:       []string{"paid out"},
			credit:      []string{"paid in"},
			amount:      []string{"amount"},
			dualAmount:  true,
		}
	default:
		return columnNames{
			date:        []string{"date"},
			typeCode:    []string{"type"},
			description: []string{"description"},
			amount:      []string{"amount"},
		}
	}
}

// ParseText turns raw CSV text into draft records. The first non-empty
// line is the header row; every following non-blank line becomes exactly
// one record. A file with fewer than two non-empty lines yields an empty
// result, not an error. Malformed cells degrade to safe defaults so a bad
// row never blocks the file.
func ParseText(text string, opts parser.Options) []domain.DraftRecord {
	lines := splitLines(text)
	if len(lines) < 2 {
		return []domain.DraftRecord{}
	}

	headers := SplitLine(lines[0])
	for i := range headers {
		headers[i] = stripQuotes(headers[i])
	}
	format := DetectFormat(headers)

	lookup := make(map[string]int, len(headers))
	for i, h := range headers {
		lookup[strings.ToLower(h)] = i
	}

	known := opts.KnownAccounts()
	cols := formatColumns(format)
	records := make([]domain.DraftRecord, 0, len(lines)-1)

	for _, line := range lines[1:] {
		cells := SplitLine(line)
		if blankRow(cells) {
			continue
		}

		cell := func(names ...string) string {
			for _, name := range names {
				if idx, ok := lookup[strings.ToLower(name)]; ok && idx < len(cells) {
					if v := stripQuotes(cells[idx]); v != "" {
						return v
					}
				}
			}
			return ""
		}

		cfg := opts.Config

		// Field extraction precedence: explicit column config, then
		// format conventions, then generic names.
		var rawDate, rawType, rawDesc string
		var amount float64
		if cfg.HasExplicitColumns() {
			rawDate = cell(prepend(cfg.DateColumn, cols.date)...)
			rawType = cell(prepend(cfg.TypeColumn, cols.typeCode)...)
			rawDesc = cell(prepend(cfg.DescriptionColumn, cols.description)...)
			if cfg.DualAmount {
				amount = dualAmount(cell(cfg.CreditColumn), cell(cfg.DebitColumn))
			} else {
				amount = parseAmount(cell(cfg.AmountColumn))
			}
		} else {
			rawDate = cell(cols.date...)
			rawType = cell(cols.typeCode...)
			rawDesc = cell(cols.description...)
			if cols.dualAmount {
				amount = dualAmount(cell(cols.credit...), cell(cols.debit...))
				if amount == 0 && cell(cols.amount...) != "" {
					amount = parseAmount(cell(cols.amount...))
				}
			} else {
				amount = parseAmount(cell(cols.amount...))
			}
		}

		// Bank exports reuse an "account" header for sort codes and
		// account numbers, so the annotation convention only applies to
		// the generic layout.
		annotation := ""
		if cfg != nil && cfg.AccountColumn != "" {
			annotation = cell(cfg.AccountColumn)
		} else if format == domain.FormatGeneric {
			annotation = cell("account")
		}

		configuredAccount := ""
		if cfg != nil {
			configuredAccount = cfg.AccountID
		}
		res := known.Resolve(amount, configuredAccount, annotation)

		rec := domain.DraftRecord{
			ID:                  ids.RecordID(opts.FileName, len(records)),
			RawDate:             NormalizeDate(rawDate, format),
			RawTypeCode:         rawType,
			RawDescription:      rawDesc,
			RawAmount:           amount,
			RawBalance:          cell("balance"),
			SourceFormat:        format,
			ResolvedType:        rules.ResolveType(rawType, amount, opts.TypeMappings),
			ResolvedDescription: rawDesc,
			FromAccountID:       res.From,
			ToAccountID:         res.To,
			SourceFile:          opts.FileName,
			AccountAnnotation:   annotation,
			AccountWarning:      res.Warning,
		}
		records = append(records, rec)
	}

	return records
}

// prepend puts the configured column name (when set) ahead of the
// convention fallbacks
func prepend(name string, fallbacks []string) []string {
	if name == "" {
		return fallbacks
	}
	return append([]string{name}, fallbacks...)
}

// dualAmount combines separate credit/debit cells into one signed amount:
// the credit value when positive, otherwise the negated debit value
func dualAmount(creditCell, debitCell string) float64 {
	credit := parseAmount(creditCell)
	if credit > 0 {
		return credit
	}
	return -parseAmount(debitCell)
}

// parseAmount reads a currency cell leniently. Currency symbols, thousands
// separators and surrounding whitespace are stripped; anything still
// non-numeric becomes zero rather than an error.
func parseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// DefaultConfig builds the initial column configuration for a freshly
// loaded CSV by sniffing its header row: the detected format's column
// conventions are prefilled wherever the header actually carries them, so
// the reviewer starts from a working mapping instead of a blank one.
func DefaultConfig(text string) *domain.ColumnConfig {
	lines := splitLines(text)
	if len(lines) == 0 {
		return &domain.ColumnConfig{}
	}

	headers := SplitLine(lines[0])
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(stripQuotes(h))] = true
	}

	has := func(names []string) string {
		for _, name := range names {
			if present[name] {
				return name
			}
		}
		return ""
	}

	format := DetectFormat(headers)
	cols := formatColumns(format)

	cfg := &domain.ColumnConfig{
		DateColumn:        has(cols.date),
		TypeColumn:        has(cols.typeCode),
		DescriptionColumn: has(cols.description),
	}
	if cols.dualAmount && has(cols.debit)+has(cols.credit) != "" {
		cfg.DualAmount = true
		cfg.DebitColumn = has(cols.debit)
		cfg.CreditColumn = has(cols.credit)
	} else {
		cfg.AmountColumn = has(cols.amount)
	}
	if format == domain.FormatGeneric && present["account"] {
		cfg.AccountColumn = "account"
	}

	return cfg
}

// splitLines breaks text into trimmed non-empty lines
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// blankRow reports whether every cell in the row is empty
func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
