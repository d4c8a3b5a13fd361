// Package ui holds the terminal presentation helpers shared by the opl
// commands: lipgloss styles for feedback lines and huh forms for
// interactive input. Styling degrades to plain text on pipes, so piped
// output stays machine-friendly.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	emphasis     = lipgloss.NewStyle().Bold(true)
	muted        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Successf renders a confirmation line.
func Successf(format string, args ...any) string {
	return successStyle.Render(fmt.Sprintf(format, args...))
}

// Errorf renders a failure line for stderr.
func Errorf(format string, args ...any) string {
	return errorStyle.Render(fmt.Sprintf(format, args...))
}

// Emph highlights an inline fragment.
func Emph(s string) string { return emphasis.Render(s) }

// Muted renders secondary detail.
func Muted(s string) string { return muted.Render(s) }
