package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Step prints a section header for one phase of a command.
func Step(format string, args ...interface{}) {
	fmt.Printf("\n %s  %s\n\n", color.CyanString("▶"), fmt.Sprintf(format, args...))
}

// Info prints a plain progress line.
func Info(format string, args ...interface{}) {
	fmt.Printf(" → %s\n", fmt.Sprintf(format, args...))
}

// Success prints a green check line.
func Success(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line.
func Warn(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}

// Error prints a red error line.
func Error(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

// DryRun prints a line describing an action that would have been performed.
func DryRun(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", color.MagentaString("[DRY RUN]"), fmt.Sprintf(format, args...))
}
