package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Downgrade to plain text when stdout is not a terminal or NO_COLOR is set.
func init() {
	if !IsTerminal() || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Styles for rendering per-file source-control states in a terminal.
var (
	StyleLocked      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	StyleLockedOther = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	StyleModified    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	StyleAdded       = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	StyleDeleted     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	StyleConflicted  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
	StyleNotAtHead   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	StyleUntracked   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // grey
	StyleHeader      = lipgloss.NewStyle().Bold(true)
)

// IsTerminal reports whether stdout is attached to a terminal. Styled output
// is only emitted when it is.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Colorize renders text with the given style when stdout is a terminal,
// otherwise returns the text unchanged.
func Colorize(style lipgloss.Style, text string) string {
	if !IsTerminal() {
		return text
	}
	return style.Render(text)
}
