// Package output writes the review document produced by a derivation and
// serves the static CSV template download.
package output

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/session"
)

//go:embed template.csv
var templateCSV []byte

// FileSummary aggregates per-file counts for the review document
type FileSummary struct {
	File     string `json:"file"`
	Records  int    `json:"records"`
	Warnings int    `json:"warnings"`
	Error    string `json:"error,omitempty"`
}

// ReviewDocument is the full derivation result handed to a reviewer
type ReviewDocument struct {
	Records     []domain.DraftRecord `json:"records"`
	Files       []FileSummary        `json:"files"`
	Committable int                  `json:"committable"`
	Transfers   int                  `json:"transfers"`
}

// BuildReview assembles a review document from derivation output
func BuildReview(records []domain.DraftRecord, issues []session.FileIssue) *ReviewDocument {
	doc := &ReviewDocument{
		Records: records,
	}
	if doc.Records == nil {
		doc.Records = []domain.DraftRecord{}
	}

	perFile := make(map[string]*FileSummary)
	order := []string{}
	summary := func(file string) *FileSummary {
		if s, ok := perFile[file]; ok {
			return s
		}
		s := &FileSummary{File: file}
		perFile[file] = s
		order = append(order, file)
		return s
	}

	for i := range records {
		rec := &records[i]
		s := summary(rec.SourceFile)
		s.Records++
		if rec.AccountWarning != "" || rec.DuplicateWarning != "" {
			s.Warnings++
		}
		if rec.Committable() {
			doc.Committable++
		}
		if rec.IsTransfer && !rec.IsTransferMirror {
			doc.Transfers++
		}
	}

	for _, issue := range issues {
		summary(issue.File).Error = issue.Err.Error()
	}

	doc.Files = make([]FileSummary, 0, len(order))
	for _, file := range order {
		doc.Files = append(doc.Files, *perFile[file])
	}

	return doc
}

// WriteReview serializes the review document as indented JSON
func WriteReview(doc *ReviewDocument, w io.Writer) error {
	if doc == nil {
		return fmt.Errorf("review document cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode review document as JSON: %w", err)
	}
	return nil
}

// WriteReviewToFile writes the review document to a file, or stdout when
// path is empty
func WriteReviewToFile(doc *ReviewDocument, path string) (err error) {
	if path == "" {
		return WriteReview(doc, os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", path, closeErr)
		}
	}()

	if err = WriteReview(doc, f); err != nil {
		return fmt.Errorf("failed to write review document to %s: %w", path, err)
	}
	return nil
}

// TemplateCSV returns the static sample statement illustrating the
// expected columns and the #Debt / #Savings account-annotation suffixes.
// The content is a fixed literal, not derived from the pipeline.
func TemplateCSV() []byte {
	out := make([]byte, len(templateCSV))
	copy(out, templateCSV)
	return out
}

// WriteTemplate writes the sample statement to a file
func WriteTemplate(path string) error {
	if err := os.WriteFile(path, templateCSV, 0644); err != nil {
		return fmt.Errorf("failed to write template to %s: %w", path, err)
	}
	return nil
}
