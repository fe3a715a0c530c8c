// Package ui formats the user-facing progress lines printed by the commands.
// Color is disabled by fatih/color itself when stdout is not a terminal or
// NO_COLOR is set.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// Success prints a "✓ ..." line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a "⚠ Warning: ..." line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠ Warning:"), fmt.Sprintf(format, args...))
}

// Error prints a "✗ Error: ..." line.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", red("✗ Error:"), err)
}

// Step prints a batch progress prefix such as "[2/5] Processing a.csv".
func Step(w io.Writer, i, n int, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", cyan(fmt.Sprintf("[%d/%d]", i, n)), fmt.Sprintf(format, args...))
}
