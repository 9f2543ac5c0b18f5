package ui

import (
	"strings"
	"testing"
)

func TestCenter(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{
			name:     "text shorter than width",
			text:     "Hello",
			width:    15,
			expected: "     Hello",
		},
		{
			name:     "text same as width",
			text:     "Hello",
			width:    5,
			expected: "Hello",
		},
		{
			name:     "text longer than width",
			text:     "Hello World",
			width:    5,
			expected: "Hello World",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := center(tt.text, tt.width)
			if result != tt.expected {
				t.Errorf("center(%q, %d) = %q; want %q", tt.text, tt.width, result, tt.expected)
			}
		})
	}
}

func TestColorFunctions(t *testing.T) {
	// Verifies the helpers don't panic; actual escape codes depend on
	// the terminal and are not asserted here.
	Header("Importing Statements")
	Step(1, 3, "Scanning directory")
	Success("done")
	Info("details")
	Warning("careful")
	Error("failed")

	if !strings.Contains(BlueText("x"), "x") {
		t.Error("BlueText dropped its message")
	}
	if !strings.Contains(YellowText("x"), "x") {
		t.Error("YellowText dropped its message")
	}
}
