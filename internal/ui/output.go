// Package ui provides colored terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// center left-pads text so it sits in the middle of the given width.
// Text wider than the width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// Header prints a banner with the title centered between rule lines.
func Header(title string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(title, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress marker, e.g. "[2/4] Loading rules".
func Step(current, total int, message string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(message)
}

// Success prints a green checkmark line.
func Success(message string) {
	successColor.Printf("✓ %s\n", message)
}

// Info prints a plain informational line.
func Info(message string) {
	infoColor.Printf("  %s\n", message)
}

// Warning prints a yellow warning line.
func Warning(message string) {
	warningColor.Printf("⚠ %s\n", message)
}

// Error prints a red error line.
func Error(message string) {
	errorColor.Printf("✗ %s\n", message)
}

// BlueText returns the message wrapped in blue color codes.
func BlueText(message string) string {
	return color.BlueString(message)
}

// YellowText returns the message wrapped in yellow color codes.
func YellowText(message string) string {
	return color.YellowString(message)
}
