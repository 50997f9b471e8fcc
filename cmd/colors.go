package cmd

import (
	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// formatPresence renders a file-existence marker for the info command.
func formatPresence(exists bool, missingNote string) string {
	if exists {
		return colorSuccess("✓ (exists)")
	}
	return colorWarn("✗ (" + missingNote + ")")
}
