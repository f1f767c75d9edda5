package csv

import (
	"testing"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		format domain.SourceFormat
		want   string
	}{
		{"barclays day month year", "3 Feb 2026", domain.FormatBarclays, "2026-02-03"},
		{"barclays two digit day", "15 Jan 2026", domain.FormatBarclays, "2026-01-15"},
		{"barclays lowercase month", "7 dec 2025", domain.FormatBarclays, "2025-12-07"},
		{"barclays unknown month unchanged", "3 Febr 2026", domain.FormatBarclays, "3 Febr 2026"},
		{"barclays day out of range unchanged", "32 Jan 2026", domain.FormatBarclays, "32 Jan 2026"},
		{"barclays short year unchanged", "3 Feb 26", domain.FormatBarclays, "3 Feb 26"},
		{"hsbc slash date", "15/01/2026", domain.FormatHSBC, "2026-01-15"},
		{"hsbc single digit parts", "5/3/2026", domain.FormatHSBC, "2026-03-05"},
		{"hsbc month out of range unchanged", "15/13/2026", domain.FormatHSBC, "15/13/2026"},
		{"hsbc wrong separator unchanged", "15-01-2026", domain.FormatHSBC, "15-01-2026"},
		{"generic passes through", "2026-01-15", domain.FormatGeneric, "2026-01-15"},
		{"generic garbage passes through", "not a date", domain.FormatGeneric, "not a date"},
		{"empty unchanged", "", domain.FormatBarclays, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.raw, tt.format)
			if got != tt.want {
				t.Errorf("NormalizeDate(%q, %s) = %q, want %q", tt.raw, tt.format, got, tt.want)
			}
		})
	}
}
