package ids

import (
	"strings"
	"testing"
)

func TestSlugifyFile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple name", "statement.csv", "statement-csv"},
		{"uppercase lowered", "Statement.CSV", "statement-csv"},
		{"spaces and punctuation collapse", "Jan 2026 (copy).csv", "jan-2026-copy-csv"},
		{"accents stripped", "Relevé.csv", "releve-csv"},
		{"leading and trailing separators trimmed", "--export--.csv", "export-csv"},
		{"only symbols falls back", "!!!", "file"},
		{"empty falls back", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SlugifyFile(tt.in)
			if got != tt.want {
				t.Errorf("SlugifyFile(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecordID(t *testing.T) {
	if got := RecordID("export.csv", 0); got != "export-csv:0" {
		t.Errorf("RecordID() = %q, want export-csv:0", got)
	}
	if got := RecordID("export.csv", 12); got != "export-csv:12" {
		t.Errorf("RecordID() = %q, want export-csv:12", got)
	}

	// Determinism across calls
	if RecordID("a.csv", 3) != RecordID("a.csv", 3) {
		t.Error("RecordID() is not deterministic")
	}

	// Accent-insensitive file identity
	if RecordID("Relevé.csv", 0) != RecordID("Releve.csv", 0) {
		t.Error("RecordID() should match for accent variants of the same name")
	}
}

func TestTempRuleIDs(t *testing.T) {
	id := NewTempRuleID()

	if !strings.HasPrefix(id, TempRulePrefix) {
		t.Errorf("NewTempRuleID() = %q, want %q prefix", id, TempRulePrefix)
	}
	if !IsTempRuleID(id) {
		t.Errorf("IsTempRuleID(%q) = false, want true", id)
	}
	if IsTempRuleID("rule-store-assigned") {
		t.Error("IsTempRuleID() should reject store-assigned IDs")
	}

	// Fresh IDs must not collide
	if NewTempRuleID() == NewTempRuleID() {
		t.Error("NewTempRuleID() returned the same ID twice")
	}
}
