// Package session holds the authoritative state of one review session and
// derives the reviewable record set from it.
//
// Every mutation (a rule edit, a column-config edit, a file add) goes
// through the session, and consumers re-derive the full record list
// afterwards instead of patching records incrementally. Keeping one pure
// re-derivation function is what makes rule-change previews trustworthy:
// calling Derive twice with identical state yields identical output.
package session

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/accounts"
	"github.com/rumor-ml/commons.systems/bankimport/internal/dedup"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parsers/csv"
	"github.com/rumor-ml/commons.systems/bankimport/internal/registry"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
	"github.com/rumor-ml/commons.systems/bankimport/internal/transfers"
)

// File is one loaded statement: name plus full text content. File reads
// happen before a file enters the session, so derivation itself has no
// asynchronous boundary.
type File struct {
	Name string
	Text string
}

// FileIssue records a file that could not be parsed at all. CSV parsing is
// lenient and never produces these; a malformed OFX file does.
type FileIssue struct {
	File string
	Err  error
}

// Session is the authoritative in-memory state for one review: loaded
// files, their column configs, the three rule sets, known accounts, and
// the reviewer's per-record skip overrides. A derivation reads a
// consistent snapshot; no concurrent mutation is expected during a run.
type Session struct {
	registry *registry.Registry
	accounts *accounts.Known

	files   []File
	configs map[string]*domain.ColumnConfig

	typeMappings  []rules.TypeMappingRule
	merchantRules []rules.MerchantRule
	transferRules []rules.TransferRule

	skips map[string]bool
}

// New creates an empty session over the given known accounts
func New(known *accounts.Known) *Session {
	if known == nil {
		known = &accounts.Known{}
	}
	return &Session{
		registry: registry.New(),
		accounts: known,
		configs:  make(map[string]*domain.ColumnConfig),
		skips:    make(map[string]bool),
	}
}

// LoadRuleSet replaces all three rule sets from a loaded rule set
func (s *Session) LoadRuleSet(rs *rules.RuleSet) {
	if rs == nil {
		return
	}
	s.typeMappings = rs.TypeMappings
	s.merchantRules = rs.MerchantRules
	s.transferRules = rs.TransferRules
}

// AddFile loads a statement into the session and returns its sniffed
// default column config. Adding a file under an existing name replaces it.
func (s *Session) AddFile(name, text string) *domain.ColumnConfig {
	for i := range s.files {
		if s.files[i].Name == name {
			s.files[i].Text = text
			return s.configs[name]
		}
	}

	s.files = append(s.files, File{Name: name, Text: text})

	cfg := &domain.ColumnConfig{}
	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		cfg = csv.DefaultConfig(text)
	}
	s.configs[name] = cfg
	return cfg
}

// RemoveFile drops a file and its column config
func (s *Session) RemoveFile(name string) {
	for i := range s.files {
		if s.files[i].Name == name {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	delete(s.configs, name)
}

// FileNames lists loaded files in load order
func (s *Session) FileNames() []string {
	names := make([]string, len(s.files))
	for i, f := range s.files {
		names[i] = f.Name
	}
	return names
}

// ColumnConfig returns the config for a loaded file, or nil
func (s *Session) ColumnConfig(name string) *domain.ColumnConfig {
	return s.configs[name]
}

// SetColumnConfig replaces a file's column mapping
func (s *Session) SetColumnConfig(name string, cfg *domain.ColumnConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.configs[name] = cfg
	return nil
}

// SetTypeMappings replaces the bank-code type mappings
func (s *Session) SetTypeMappings(mappings []rules.TypeMappingRule) {
	s.typeMappings = mappings
}

// SetMerchantRules replaces the ordered merchant rule list
func (s *Session) SetMerchantRules(ruleList []rules.MerchantRule) {
	s.merchantRules = ruleList
}

// SetTransferRules replaces the ordered transfer rule list
func (s *Session) SetTransferRules(ruleList []rules.TransferRule) {
	s.transferRules = ruleList
}

// SetSkip records a reviewer's skip override for a record ID. Record IDs
// are deterministic, so the override survives re-derivation.
func (s *Session) SetSkip(recordID string, skip bool) {
	if skip {
		s.skips[recordID] = true
	} else {
		delete(s.skips, recordID)
	}
}

// Derive produces the full reviewable record list from current state:
// every file parsed independently, results concatenated, merchant rules
// applied over the concatenation, then transfer matching over the whole
// set so pairs may span files, then duplicate flagging and skip overrides.
func (s *Session) Derive(ctx context.Context) ([]domain.DraftRecord, []FileIssue) {
	var all []domain.DraftRecord
	var issues []FileIssue

	for _, f := range s.files {
		opts := parser.Options{
			FileName:     f.Name,
			Config:       s.configs[f.Name],
			TypeMappings: s.typeMappings,
			Accounts:     s.accounts,
		}

		p, err := s.registry.Find(f.Name, []byte(f.Text))
		if err != nil {
			issues = append(issues, FileIssue{File: f.Name, Err: err})
			continue
		}

		records, err := p.Parse(ctx, strings.NewReader(f.Text), opts)
		if err != nil {
			issues = append(issues, FileIssue{File: f.Name, Err: err})
			continue
		}
		all = append(all, records...)
	}

	all = rules.ApplyMerchantRules(all, s.merchantRules)
	all = transfers.Apply(all, s.transferRules)
	all = dedup.FlagDuplicates(all)

	for i := range all {
		if s.skips[all[i].ID] {
			all[i].Skip = true
		}
	}

	return all, issues
}

// CommitSet derives the session and filters to committable records: not
// skipped, not a mirror leg, at least one resolved account.
func (s *Session) CommitSet(ctx context.Context) []domain.DraftRecord {
	derived, _ := s.Derive(ctx)

	committable := make([]domain.DraftRecord, 0, len(derived))
	for _, rec := range derived {
		if rec.Committable() {
			committable = append(committable, rec)
		}
	}
	return committable
}
