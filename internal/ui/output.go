// Package ui provides colored terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

const lineWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgBlue)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// center pads text on the left so it sits centered within width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	pad := (width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

// Header prints a section banner
func Header(text string) {
	line := strings.Repeat("=", lineWidth)
	headerColor.Fprintln(os.Stderr, line)
	headerColor.Fprintln(os.Stderr, center(text, lineWidth))
	headerColor.Fprintln(os.Stderr, line)
}

// Step prints a numbered progress step
func Step(n, total int, text string) {
	infoColor.Fprintf(os.Stderr, "[%d/%d] %s\n", n, total, text)
}

// Success prints a confirmation line
func Success(text string) {
	successColor.Fprintf(os.Stderr, "✓ %s\n", text)
}

// Info prints an informational line
func Info(text string) {
	infoColor.Fprintf(os.Stderr, "  %s\n", text)
}

// Warning prints a non-fatal warning line
func Warning(text string) {
	warnColor.Fprintf(os.Stderr, "! %s\n", text)
}

// Error prints an error line
func Error(text string) {
	errorColor.Fprintf(os.Stderr, "✗ %s\n", text)
}

// BlueText returns text wrapped in blue color codes
func BlueText(text string) string {
	return infoColor.Sprint(text)
}

// YellowText returns text wrapped in yellow color codes
func YellowText(text string) string {
	return warnColor.Sprint(text)
}

// Summary prints a key/value stat line
func Summary(label string, value interface{}) {
	fmt.Fprintf(os.Stderr, "  %-24s %v\n", label+":", value)
}
