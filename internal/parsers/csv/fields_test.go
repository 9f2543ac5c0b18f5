package csv

import (
	"reflect"
	"testing"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "03/14/2025,STARBUCKS,-5.75",
			want: []string{"03/14/2025", "STARBUCKS", "-5.75"},
		},
		{
			name: "quoted field with comma",
			line: `03/14/2025,"AMAZON, INC",-20.00`,
			want: []string{"03/14/2025", "AMAZON, INC", "-20.00"},
		},
		{
			name: "quoted money with thousands separator",
			line: `Ending balance as of 03/31/2025,"4,213.24"`,
			want: []string{"Ending balance as of 03/31/2025", "4,213.24"},
		},
		{
			name: "doubled quote decodes to literal",
			line: `a,"say ""hi""",b`,
			want: []string{"a", `say "hi"`, "b"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c,",
			want: []string{"a", "", "c", ""},
		},
		{
			name: "single field",
			line: "only",
			want: []string{"only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitFields(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitFields(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "1234.56", "1234.56", false},
		{"negative", "-42.10", "-42.1", false},
		{"thousands separators", "1,234,567.89", "1234567.89", false},
		{"quoted", `"4,213.24"`, "4213.24", false},
		{"dollar sign", "$99.00", "99", false},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMoney(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMoney(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("parseMoney(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNonBlankLines(t *testing.T) {
	raw := "a\r\n\n  \n b \nc"
	want := []string{"a", "b", "c"}
	if got := nonBlankLines(raw); !reflect.DeepEqual(got, want) {
		t.Errorf("nonBlankLines() = %#v, want %#v", got, want)
	}
}
