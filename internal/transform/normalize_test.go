package transform

import (
	"testing"
	"time"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "strips reference token",
			raw:  "CHECKCARD 0312 STARBUCKS ID:88213 SEATTLE",
			want: "CHECKCARD 0312 STARBUCKS SEATTLE",
		},
		{
			name: "strips multiple reference tokens",
			raw:  "ID:1 ZELLE ID:2 PAYMENT",
			want: "ZELLE PAYMENT",
		},
		{
			name: "collapses repeated whitespace",
			raw:  "AMAZON   MKTPLACE    PMTS",
			want: "AMAZON MKTPLACE PMTS",
		},
		{
			name: "trims",
			raw:  "  NETFLIX.COM  ",
			want: "NETFLIX.COM",
		},
		{
			name: "preserves punctuation and casing",
			raw:  "PAYPAL *Spotify, Inc.",
			want: "PAYPAL *Spotify, Inc.",
		},
		{
			name: "embedded ID substring is not a token match",
			raw:  "GRID:9 UTILITY CO",
			want: "GRID:9 UTILITY CO",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "only reference tokens",
			raw:  "ID:1 ID:2",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDescription(tt.raw); got != tt.want {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeDescription_Deterministic(t *testing.T) {
	raw := "ACH DEPOSIT ID:4411 EMPLOYER  PAYROLL"
	first := NormalizeDescription(raw)
	for i := 0; i < 10; i++ {
		if got := NormalizeDescription(raw); got != first {
			t.Fatalf("NormalizeDescription() not deterministic: %q != %q", got, first)
		}
	}
}

func TestInstitutionKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "Robinhood", "robinhood", false},
		{"multi word", "Bank of America", "bank_of_america", false},
		{"already a key", "bank_of_america", "bank_of_america", false},
		{"accented characters", "Crédit Agricole", "credit_agricole", false},
		{"punctuation", "E*TRADE", "e_trade", false},
		{"empty", "", "", true},
		{"no alphanumerics", "!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InstitutionKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InstitutionKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("InstitutionKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	d := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	if got := MonthLabel(d); got != "Mar 2025" {
		t.Errorf("MonthLabel() = %q, want %q", got, "Mar 2025")
	}
}
