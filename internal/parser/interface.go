// Package parser defines the strategy interface statement parsers
// implement and the options a parse pass consumes.
package parser

import (
	"context"
	"io"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

// Options carries the session inputs a parse pass reads. All fields are
// treated as read-only snapshots; a parser never mutates them.
type Options struct {
	// FileName labels produced records and seeds their deterministic IDs
	FileName string
	// Config is the per-file column mapping; nil means rely on format
	// conventions
	Config *domain.ColumnConfig
	// TypeMappings resolve bank type codes to canonical types
	TypeMappings []rules.TypeMappingRule
	// Accounts are the known asset/debt collections for row resolution;
	// nil disables annotation lookup
	Accounts *accounts.Known
}

// KnownAccounts returns the accounts collection, never nil
func (o *Options) KnownAccounts() *accounts.Known {
	if o.Accounts == nil {
		return &accounts.Known{}
	}
	return o.Accounts
}

// Parser is the strategy interface for statement file formats
type Parser interface {
	// Name returns the parser identifier (e.g. "csv", "ofx")
	Name() string

	// CanParse checks if this parser should handle the file, based on
	// its path and the first bytes of content
	CanParse(path string, header []byte) bool

	// Parse reads the file contents and produces draft records. Parsing
	// is lenient: malformed rows degrade to safe defaults rather than
	// aborting the file.
	Parse(ctx context.Context, r io.Reader, opts Options) ([]domain.DraftRecord, error)
}
