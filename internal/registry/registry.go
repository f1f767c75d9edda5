// Package registry selects the right statement parser for a file.
package registry

import (
	"fmt"

	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parsers/csv"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parsers/ofx"
)

// Registry holds all registered parsers
type Registry struct {
	parsers []parser.Parser
}

// New creates a registry with the built-in parsers
func New() *Registry {
	return &Registry{
		parsers: []parser.Parser{
			csv.NewParser(),
			ofx.NewParser(),
		},
	}
}

// Register adds a custom parser
func (r *Registry) Register(p parser.Parser) {
	r.parsers = append(r.parsers, p)
}

// Find returns the parser claiming this file. The header is the first
// bytes of content; 512 bytes is enough to detect the markers and headers
// of the supported formats.
func (r *Registry) Find(name string, header []byte) (parser.Parser, error) {
	if len(header) > 512 {
		header = header[:512]
	}
	for _, p := range r.parsers {
		if p.CanParse(name, header) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parser found for file: %s", name)
}

// ListParsers returns the names of all registered parsers
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
