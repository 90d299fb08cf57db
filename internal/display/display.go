// Package display renders workflow output with a consistent style.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#5FAFAF") // Teal accent
	secondaryColor = lipgloss.Color("#666666") // Gray for secondary text
	successColor   = lipgloss.Color("#87AF87") // Muted sage for success
	errorColor     = lipgloss.Color("#AF5F5F") // Muted terracotta for errors

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	reportStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
)

// Console writes styled workflow output to a single writer.
type Console struct {
	w io.Writer
}

// New creates a console writing to w. A nil writer defaults to stdout.
func New(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Banner prints a phase or task heading.
func (c *Console) Banner(format string, args ...any) {
	fmt.Fprintln(c.w, titleStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints a plain status line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Hint prints secondary guidance, like the valid commands at a prompt.
func (c *Console) Hint(format string, args ...any) {
	fmt.Fprintln(c.w, subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a completed-outcome line.
func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.w, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints a failure line.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.w, errorStyle.Render(fmt.Sprintf(format, args...)))
}

// Report prints a verification report in a bordered box so it stands out
// from the surrounding agent output.
func (c *Console) Report(content string) {
	fmt.Fprintln(c.w, reportStyle.Render(content))
}
