// Package colors provides terminal color support for cvs output.
//
// Styling goes through lipgloss; colour is switched off when stdout is not
// a terminal, when NO_COLOR is set or when the color.ui setting is false.
package colors

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ANSI palette indexes used by the styles below.
const (
	paletteGray          = "8"
	paletteBrightRed     = "9"
	paletteBrightGreen   = "10"
	paletteBrightYellow  = "11"
	paletteBrightBlue    = "12"
	paletteBrightMagenta = "13"
	paletteBrightCyan    = "14"
)

var (
	addedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightGreen))
	modifiedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightBlue))
	deletedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightRed))
	untrackedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightYellow))
	grayStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteGray))
	cyanStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightCyan))
	magentaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(paletteBrightMagenta))
	boldStyle      = lipgloss.NewStyle().Bold(true)
)

// colorEnabled determines if color output should be used
var colorEnabled = shouldUseColor()

func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns whether colors are currently enabled
func IsColorEnabled() bool {
	return colorEnabled
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

func Added(text string) string     { return render(addedStyle, text) }
func Modified(text string) string  { return render(modifiedStyle, text) }
func Deleted(text string) string   { return render(deletedStyle, text) }
func Untracked(text string) string { return render(untrackedStyle, text) }
func Gray(text string) string      { return render(grayStyle, text) }
func Cyan(text string) string      { return render(cyanStyle, text) }
func Magenta(text string) string   { return render(magentaStyle, text) }
func Bold(text string) string      { return render(boldStyle, text) }

// SectionHeader formats a status section title.
func SectionHeader(text string) string {
	return Bold(text)
}

// ColorizeFileStatus colours text according to a status label
// (NEW, MODIFIED, DELETED, UNCHANGED, UNTRACKED).
func ColorizeFileStatus(status, text string) string {
	switch status {
	case "NEW":
		return Added(text)
	case "MODIFIED":
		return Modified(text)
	case "DELETED":
		return Deleted(text)
	case "UNTRACKED":
		return Untracked(text)
	case "UNCHANGED":
		return Gray(text)
	default:
		return text
	}
}
